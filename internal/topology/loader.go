package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/leqnet/go-leq/pkg/types"
)

// 内置拓扑名称
const (
	SourceSample  = "sample"
	SourceAbilene = "abilene"
)

// ============================================================================
//                              RocketFuel 加载
// ============================================================================

// LoadRocketFuel 从 RocketFuel 格式读取拓扑
//
// 每行描述一条链路："name1 name2 weight"（空白分隔）。
// 节点名按首次出现顺序映射为从 0 开始的 NodeID，映射一并返回。
// 空行和以 # 开头的行被忽略。
func LoadRocketFuel(r io.Reader, opts ...Option) (*Graph, map[string]types.NodeID, error) {
	g := New(opts...)
	names := make(map[string]types.NodeID)

	nodeOf := func(name string) types.NodeID {
		id, ok := names[name]
		if !ok {
			id = types.NodeID(len(names))
			names[name] = id
		}
		return id
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, nil, fmt.Errorf("%w: line %d: want 3 fields, got %d", ErrMalformedLine, lineNo, len(fields))
		}
		w, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: weight %q", ErrMalformedLine, lineNo, fields[2])
		}

		if err := g.AddEdge(nodeOf(fields[0]), nodeOf(fields[1]), types.Weight(w)); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read topology: %w", err)
	}

	log.Info("RocketFuel 拓扑已加载",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount())
	return g, names, nil
}

// LoadRocketFuelFile 从文件读取 RocketFuel 格式拓扑
func LoadRocketFuelFile(path string, opts ...Option) (*Graph, map[string]types.NodeID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open topology: %w", err)
	}
	defer f.Close()

	return LoadRocketFuel(f, opts...)
}

// FromSource 按来源名称构建拓扑
//
// source 为 "sample"、"abilene" 或 RocketFuel 文件路径。
func FromSource(source string, opts ...Option) (*Graph, error) {
	switch source {
	case SourceSample:
		return Sample(opts...), nil
	case SourceAbilene:
		return Abilene(opts...), nil
	case "":
		return nil, fmt.Errorf("%w: empty", ErrUnknownSource)
	}

	g, _, err := LoadRocketFuelFile(source, opts...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ============================================================================
//                              内置拓扑
// ============================================================================

// Abilene 城市节点编号
const (
	Seattle types.NodeID = iota
	SaltLake
	LosAngeles
	KansasCity
	Houston
	Chicago
	Atlanta
	Washington
	NewYork
)

// edgeSpec 内置拓扑的链路描述
type edgeSpec struct {
	u, v types.NodeID
	w    types.Weight
}

var abileneEdges = []edgeSpec{
	{Seattle, SaltLake, 3},
	{Seattle, LosAngeles, 6},
	{SaltLake, KansasCity, 5},
	{SaltLake, LosAngeles, 6},
	{SaltLake, Houston, 10},
	{LosAngeles, KansasCity, 12},
	{LosAngeles, Houston, 8},
	{KansasCity, Houston, 3},
	{KansasCity, Chicago, 2},
	{Houston, Atlanta, 5},
	{Chicago, Atlanta, 5},
	{Chicago, Washington, 4},
	{Chicago, NewYork, 7},
	{Atlanta, Washington, 3},
	{Washington, NewYork, 3},
}

var sampleEdges = []edgeSpec{
	{1, 2, 1},
	{1, 5, 2},
	{2, 3, 3},
	{2, 5, 1},
	{2, 6, 4},
	{3, 4, 2},
	{3, 6, 2},
	{4, 6, 1},
	{5, 7, 3},
	{6, 7, 1},
	{6, 8, 2},
	{7, 8, 5},
}

// Abilene 返回 Abilene 骨干网拓扑（9 个城市节点）
func Abilene(opts ...Option) *Graph {
	return fromSpecs(abileneEdges, opts...)
}

// Sample 返回 8 节点示例拓扑
func Sample(opts ...Option) *Graph {
	return fromSpecs(sampleEdges, opts...)
}

// SampleAttachments 返回示例拓扑的客户端接入表
func SampleAttachments() *AttachmentTable {
	t := NewAttachmentTable()
	t.MustAttach("10.0.0.1", 1)
	t.MustAttach("10.0.0.2", 4)
	t.MustAttach("10.0.0.3", 8)
	return t
}

// fromSpecs 由链路描述构建拓扑，内置数据均为合法链路
func fromSpecs(specs []edgeSpec, opts ...Option) *Graph {
	g := New(opts...)
	for _, e := range specs {
		if err := g.AddEdge(e.u, e.v, e.w); err != nil {
			panic(err)
		}
	}
	return g
}
