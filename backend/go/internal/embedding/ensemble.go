package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Augur_1.0/backend/go/pkg/retry"
)

// ErrEmptyInput 表示文本清洗后没有可嵌入的内容。
// 它与嵌入失败是不同的情况，调用方应跳过该文本而不是报错重试。
var ErrEmptyInput = errors.New("embedding: empty input")

// Member 是集成中的一个命名模型及其字符预算。
type Member struct {
	Name     string    // 模型标签，同时用作向量存储的键。
	Model    Embedding // 底层 embedding 客户端。
	MaxChars int       // 输入文本的最大字符预算，每个模型独立。
}

// Ensemble 用多个独立的 embedding 模型为同一文本生成向量。
// 结果是全有或全无的：任何一个模型在重试后仍然失败，
// 整个文本的嵌入结果都会被拒绝，流水线不会在部分向量上继续。
type Ensemble struct {
	members []Member
	exec    *retry.Executor
}

// NewEnsemble 创建一个 Ensemble。members 的顺序即配置顺序，
// 第一个成员是候选漏斗第一阶段使用的主模型。
func NewEnsemble(members []Member, exec *retry.Executor) *Ensemble {
	return &Ensemble{members: members, exec: exec}
}

// Primary 返回主模型的标签。
func (e *Ensemble) Primary() string {
	if len(e.members) == 0 {
		return ""
	}
	return e.members[0].Name
}

// ModelNames 按配置顺序返回所有模型标签。
func (e *Ensemble) ModelNames() []string {
	names := make([]string, len(e.members))
	for i, m := range e.members {
		names[i] = m.Name
	}
	return names
}

// Normalize 对输入文本做确定性的清洗：去掉首尾空白、按模型预算
// 截断、并把内部连续空白压缩为单个空格。
// 截断按字符（rune）计数，不会把多字节字符切成无效的 UTF-8。
func Normalize(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// emptyInput 判断清洗后的文本是否没有可嵌入的内容。
// "nan" 是上游以文本形式传递的缺失值哨兵。
func emptyInput(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || strings.EqualFold(text, "nan")
}

// EmbedAll 为同一文本生成每个成员模型的向量，键为模型标签。
//
// 参数:
//
//	ctx: 上下文，用于控制操作的生命周期。
//	text: 要生成嵌入向量的文本。
//
// 返回值:
//
//	map[string][]float32: 模型标签到向量的映射。
//	error: 输入为空时返回 ErrEmptyInput；任一模型失败时返回错误，
//	此时不返回任何向量。
func (e *Ensemble) EmbedAll(ctx context.Context, text string) (map[string][]float32, error) {
	if emptyInput(text) {
		return nil, ErrEmptyInput
	}

	vectors := make(map[string][]float32, len(e.members))
	for _, m := range e.members {
		cleaned := Normalize(text, m.MaxChars)
		res, err := e.exec.Do(ctx, func() (interface{}, error) {
			return m.Model.Embed(ctx, cleaned)
		})
		if err != nil {
			// 全有或全无：一个模型失败，整个结果被拒绝。
			return nil, fmt.Errorf("ensemble model %s: %w", m.Name, err)
		}
		vectors[m.Name] = res.([]float32)
	}
	return vectors, nil
}

// EmbedWith 用指定标签的单个成员模型嵌入文本，用于推荐查询
// 和 ticker 目录刷新这类只需要一个模型的场景。
func (e *Ensemble) EmbedWith(ctx context.Context, name, text string) ([]float32, error) {
	if emptyInput(text) {
		return nil, ErrEmptyInput
	}
	for _, m := range e.members {
		if m.Name != name {
			continue
		}
		cleaned := Normalize(text, m.MaxChars)
		res, err := e.exec.Do(ctx, func() (interface{}, error) {
			return m.Model.Embed(ctx, cleaned)
		})
		if err != nil {
			return nil, fmt.Errorf("ensemble model %s: %w", m.Name, err)
		}
		return res.([]float32), nil
	}
	return nil, fmt.Errorf("ensemble: unknown model %q", name)
}
