package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI 是一个实现了 LLM 接口的结构体，用于与 OpenAI API 交互。
type OpenAI struct {
	client *openai.Client // OpenAI 客户端实例。
	model  string         // 要使用的模型名称。
}

// NewOpenAI 创建一个新的 OpenAI 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	apiKey: OpenAI API 密钥。
//
// 返回值:
//
//	*OpenAI: 新创建的 OpenAI 客户端实例。
func NewOpenAI(model, apiKey string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete 向 OpenAI API 发送单轮提示词并返回文本回复。
//
// 参数:
//
//	ctx: 上下文，用于控制请求的生命周期。
//	prompt: 完整的提示词文本。
//
// 返回值:
//
//	string: 模型回复中的文本内容。
//	error: 如果请求失败或回复为空，则返回错误。
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
