// Package main 提供 leqroute 命令行入口
//
// leqroute 加载一份拓扑，注册一个服务，加入一批客户端，并打印均衡后的
// 路径与长度：
//
//	leqroute -topology sample -server 4 -clients 1,5
//	leqroute -topology abilene -server 8 -clients 0,2,5 -tolerance 0.05 -json
//	leqroute -config leq.yaml -server 4 -clients 10.0.0.1,10.0.0.3
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	leq "github.com/leqnet/go-leq"
	"github.com/leqnet/go-leq/internal/util/logger"
	"github.com/leqnet/go-leq/pkg/types"
)

var log = logger.Logger("leq/cmd")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags 命令行参数
type cliFlags struct {
	topology   string
	configFile string
	preset     string
	server     int64
	service    uint
	clients    string
	tolerance  float64
	overhead   float64
	jsonOut    bool
	logLevel   string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("leqroute", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.topology, "topology", "", "拓扑来源 (sample/abilene/RocketFuel 文件)")
	fs.StringVar(&f.configFile, "config", "", "配置文件路径 (.json/.yaml)")
	fs.StringVar(&f.preset, "preset", "", "预设配置 (default/strict/relaxed/bounded)")
	fs.Int64Var(&f.server, "server", -1, "服务器节点 ID")
	fs.UintVar(&f.service, "service", 0, "服务 ID")
	fs.StringVar(&f.clients, "clients", "", "客户端列表，逗号分隔（节点 ID 或示例拓扑的接入地址）")
	fs.Float64Var(&f.tolerance, "tolerance", -1, "DDTolerance（默认取配置）")
	fs.Float64Var(&f.overhead, "overhead", -1, "LOverhead（默认取配置）")
	fs.BoolVar(&f.jsonOut, "json", false, "以 JSON 输出")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别，如 debug 或 equalize=debug,info")
	fs.BoolVar(&f.version, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func run(args []string, stdout io.Writer) error {
	f, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if f.version {
		printVersion(stdout)
		return nil
	}
	if f.server < 0 {
		return errors.New("必须指定 -server")
	}

	opts, err := buildOptions(f)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	r, err := leq.Start(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = r.Close() }()

	server := types.NodeID(f.server)
	id := types.ServiceID(f.service)
	if err := register(r, f, server, id); err != nil {
		return err
	}

	clients, err := parseClients(f.clients, f.topology)
	if err != nil {
		return err
	}

	res, err := r.AddClients(server, id, clients)
	if err != nil {
		return err
	}
	if rerr := res.Err(); rerr != nil {
		log.Warn("部分客户端被拒绝", "err", rerr)
	}

	rep, err := buildReport(r, server, id, res)
	if err != nil {
		return err
	}
	if f.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(stdout, rep)
	return nil
}

// buildOptions 由命令行参数构建 Router 选项
func buildOptions(f *cliFlags) ([]leq.Option, error) {
	var opts []leq.Option
	if f.configFile != "" {
		opts = append(opts, leq.WithConfigFile(f.configFile))
	}
	if f.preset != "" {
		opts = append(opts, leq.WithPreset(f.preset))
	}
	if f.topology != "" {
		opts = append(opts, leq.WithTopologySource(f.topology))
	}
	if f.logLevel != "" {
		opts = append(opts, leq.WithLogLevel(f.logLevel))
	}
	// 命令行只运行一次，不需要指标
	opts = append(opts, leq.WithMetrics(false))
	return opts, nil
}

// register 注册服务；未指定的参数取配置默认值
func register(r *leq.Router, f *cliFlags, server types.NodeID, id types.ServiceID) error {
	if f.tolerance < 0 && f.overhead < 0 {
		return r.RegisterDefault(server, id)
	}

	cfg := r.Config()
	tol, ovh := cfg.Equalize.DefaultDDTolerance, cfg.Equalize.DefaultLOverhead
	if f.tolerance >= 0 {
		tol = f.tolerance
	}
	if f.overhead >= 0 {
		ovh = f.overhead
	}
	return r.RegisterService(server, id, tol, ovh)
}

// parseClients 解析客户端列表
//
// 每项为节点 ID；示例拓扑下也可以是 SampleAttachments 中的接入地址。
func parseClients(s, topology string) ([]types.NodeID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("必须指定 -clients")
	}

	var attachments *leq.AttachmentTable
	if topology == "" || topology == "sample" {
		attachments = leq.SampleAttachments()
	}

	var out []types.NodeID
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if n, err := types.ParseNodeID(item); err == nil {
			out = append(out, n)
			continue
		}
		if attachments != nil {
			if n, ok := attachments.NodeOf(item); ok {
				out = append(out, n)
				continue
			}
		}
		return nil, fmt.Errorf("无法解析客户端 %q", item)
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              输出
// ════════════════════════════════════════════════════════════════════════════

// report 输出结构
type report struct {
	Service    string            `json:"service"`
	Status     string            `json:"status"`
	Rounds     int               `json:"rounds"`
	MaxLatency float64           `json:"max_latency"`
	MaxMDD     float64           `json:"max_mdd"`
	Spread     int64             `json:"spread"`
	Clients    []clientReport    `json:"clients"`
	Changed    []int64           `json:"changed"`
	Rejected   map[string]string `json:"rejected,omitempty"`
}

type clientReport struct {
	Client int64   `json:"client"`
	Length int64   `json:"length"`
	Path   []int64 `json:"path"`
}

func buildReport(r *leq.Router, server types.NodeID, id types.ServiceID, res *leq.AddResult) (*report, error) {
	info, err := r.Info(server, id)
	if err != nil {
		return nil, err
	}
	paths, err := r.Paths(server, id)
	if err != nil {
		return nil, err
	}

	rep := &report{
		Service:    info.Key.String(),
		Status:     res.Status.String(),
		Rounds:     res.Rounds,
		MaxLatency: info.MaxLatency,
		MaxMDD:     info.MaxMDD,
		Spread:     int64(info.Spread),
		Changed:    make([]int64, 0, len(res.Changed)),
	}
	for _, c := range res.Changed {
		rep.Changed = append(rep.Changed, int64(c))
	}

	clients := make([]types.NodeID, 0, len(paths))
	for c := range paths {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	for _, c := range clients {
		l, err := r.PathLength(server, id, c)
		if err != nil {
			return nil, err
		}
		cr := clientReport{Client: int64(c), Length: int64(l)}
		for _, n := range paths[c] {
			cr.Path = append(cr.Path, int64(n))
		}
		rep.Clients = append(rep.Clients, cr)
	}

	if len(res.Rejected) > 0 {
		rep.Rejected = make(map[string]string, len(res.Rejected))
		for c, e := range res.Rejected {
			rep.Rejected[c.String()] = e.Error()
		}
	}
	return rep, nil
}

func printReport(w io.Writer, rep *report) {
	fmt.Fprintf(w, "服务 %s  状态 %s  轮数 %d\n", rep.Service, rep.Status, rep.Rounds)
	fmt.Fprintf(w, "maxLatency %.2f  maxMDD %.2f  spread %d\n", rep.MaxLatency, rep.MaxMDD, rep.Spread)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s %-8s %s\n", "client", "length", "path")
	for _, c := range rep.Clients {
		p := make([]string, 0, len(c.Path))
		for _, n := range c.Path {
			p = append(p, fmt.Sprint(n))
		}
		fmt.Fprintf(w, "%-8d %-8d %s\n", c.Client, c.Length, strings.Join(p, "->"))
	}
	if len(rep.Rejected) > 0 {
		fmt.Fprintln(w)
		keys := make([]string, 0, len(rep.Rejected))
		for k := range rep.Rejected {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "rejected %s: %s\n", k, rep.Rejected[k])
		}
	}
}

// printVersion 打印版本信息
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "leqroute %s\n", leq.Version)
	if leq.GitCommit != "" {
		fmt.Fprintf(w, "  commit: %s\n", leq.GitCommit)
	}
	if leq.BuildDate != "" {
		fmt.Fprintf(w, "  built:  %s\n", leq.BuildDate)
	}
}
