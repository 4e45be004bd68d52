// Package leq 提供延迟均衡路由
//
// 每个服务锚定在一个服务器节点上。对同一服务的所有客户端，leq 不让它们
// 各自走最短路径，而是为较近的客户端挑选更长的简单路径，使各客户端到
// 服务器的端到端延迟尽量接近（差值不超过 DDTolerance × maxLatency）。
//
// # 快速开始
//
//	import "github.com/leqnet/go-leq"
//
//	r, err := leq.Start(ctx, leq.WithTopologySource("abilene"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	_ = r.RegisterService(8, 0, 0.1, 1.0)
//	res, _ := r.AddClients(8, 0, []leq.NodeID{0, 2, 5})
//	paths, _ := r.Paths(8, 0)
//
// # 组成
//
//	┌───────────────────────────────────────────────┐
//	│  Router        leq.New() / leq.Start()        │
//	├───────────────────────────────────────────────┤
//	│  equalize      服务注册、客户端加入、均衡      │
//	├───────────────────────────────────────────────┤
//	│  topology      加权无向图、最短路径缓存        │
//	└───────────────────────────────────────────────┘
//
// 各层通过 Fx 装配；配置见 config 包，可从 JSON 或 YAML 文件加载。
//
// # 文件组织
//
//   - leq.go: 版本信息
//   - router.go: Router 门面
//   - options.go: 用户选项
//   - fx.go: Fx 装配
//   - types.go: 类型别名
//   - errors.go: 公共错误
package leq
