package models

import "time"

// Alert 是通知服务发布的一条股票提醒事件。
// 每条事件对应一个记录与 ticker 的组合，同一组合只发布一次。
type Alert struct {
	RecordID      string    `json:"record_id"`      // 来源预测记录ID
	Ticker        string    `json:"ticker"`         // 股票代码
	Trend         string    `json:"trend"`          // 触发提醒的趋势标签
	PercentChange float64   `json:"percent_change"` // 预测的百分比变化
	Analysis      string    `json:"analysis"`       // 推理服务给出的分析理由
	Title         string    `json:"title"`          // 来源文章标题
	CreatedAt     time.Time `json:"created_at"`     // 记录入库时间
	NotifiedAt    time.Time `json:"notified_at"`    // 提醒发出时间
}

// Key 返回记录与 ticker 组合的去重键。
func (a *Alert) Key() string {
	return a.RecordID + "_" + a.Ticker
}
