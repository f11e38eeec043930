// Package dataframe 提供内存中的表格数据结构
// 列类型（数值/分类）在解析时一次性推断，后续分析不再重复判断
package dataframe

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind 列类型
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column 带类型标签的列
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64 // 数值列的值，缺失为 NaN（分类列为 nil）
	Values  []string  // 原始单元格文本
	Missing []bool    // 缺失标记
}

// Frame 行有序、列带类型标签的表格
type Frame struct {
	columns []*Column
	rows    int
}

// New 从表头和数据行构建 Frame
// 空表头补为 col_N，重名表头追加序号；短行按缺失补齐
func New(headers []string, records [][]string) (*Frame, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("dataframe: no columns")
	}

	names := uniqueNames(headers)
	rows := len(records)

	columns := make([]*Column, 0, len(names))
	for ci, name := range names {
		col := &Column{
			Name:    name,
			Values:  make([]string, rows),
			Missing: make([]bool, rows),
		}

		numeric := true
		nonMissing := 0
		floats := make([]float64, rows)
		for ri, record := range records {
			cell := ""
			if ci < len(record) {
				cell = strings.TrimSpace(record[ci])
			}
			col.Values[ri] = cell
			if cell == "" {
				col.Missing[ri] = true
				floats[ri] = math.NaN()
				continue
			}
			nonMissing++
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				continue
			}
			floats[ri] = v
		}

		if numeric && nonMissing > 0 {
			col.Kind = KindNumeric
			col.Floats = floats
		} else {
			col.Kind = KindCategorical
		}
		columns = append(columns, col)
	}

	return &Frame{columns: columns, rows: rows}, nil
}

// Rows 行数
func (f *Frame) Rows() int { return f.rows }

// Cols 列数
func (f *Frame) Cols() int { return len(f.columns) }

// Columns 按原始顺序返回所有列
func (f *Frame) Columns() []*Column { return f.columns }

// ColumnNames 按原始顺序返回列名
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column 按名称查找列
func (f *Frame) Column(name string) (*Column, bool) {
	for _, c := range f.columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns 按原始顺序返回数值列
func (f *Frame) NumericColumns() []*Column {
	cols := make([]*Column, 0, len(f.columns))
	for _, c := range f.columns {
		if c.Kind == KindNumeric {
			cols = append(cols, c)
		}
	}
	return cols
}

// Row 返回第 i 行，保留各列原始类型（数值列为 float64，分类列为 string，缺失为 nil）
func (f *Frame) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(f.columns))
	for _, c := range f.columns {
		if c.Missing[i] {
			row[c.Name] = nil
			continue
		}
		if c.Kind == KindNumeric {
			row[c.Name] = c.Floats[i]
		} else {
			row[c.Name] = c.Values[i]
		}
	}
	return row
}

// MissingCells 全表缺失单元格总数
func (f *Frame) MissingCells() int {
	total := 0
	for _, c := range f.columns {
		total += c.MissingCount()
	}
	return total
}

// MemoryBytes 估算内存占用：数值单元格 8 字节，分类单元格按文本长度加对象开销
func (f *Frame) MemoryBytes() int64 {
	var total int64
	for _, c := range f.columns {
		if c.Kind == KindNumeric {
			total += int64(f.rows) * 8
			continue
		}
		for _, v := range c.Values {
			total += int64(len(v)) + 16
		}
	}
	return total
}

// MissingCount 列内缺失数
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// NonMissing 数值列去掉缺失后的值（保持行序）
func (c *Column) NonMissing() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// ValueCounts 按频次降序返回值分布，频次相同按值字典序保证确定性
func (c *Column) ValueCounts() []ValueCount {
	counts := make(map[string]int)
	for i, raw := range c.Values {
		if c.Missing[i] {
			continue
		}
		key := raw
		if c.Kind == KindNumeric {
			key = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
		}
		counts[key]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// ValueCount 值与出现次数
type ValueCount struct {
	Value string
	Count int
}

// uniqueNames 补齐空表头并消除重名
func uniqueNames(headers []string) []string {
	seen := make(map[string]int, len(headers))
	names := make([]string, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}
