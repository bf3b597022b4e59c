package models

import (
	"time"
)

// Freshness 表示预测记录回填生命周期的阶段。
// 状态机只允许前向转移: fresh -> partially-backfilled -> fully-backfilled。
type Freshness string

const (
	FreshnessFresh   Freshness = "fresh"                // 初始状态，所有实际价格均为空。
	FreshnessPartial Freshness = "partially-backfilled" // 部分实际价格已回填。
	FreshnessFull    Freshness = "fully-backfilled"     // 全部实际价格已回填，终态。
)

// Terminal 报告该状态是否为终态（不再参与回填）。
func (f Freshness) Terminal() bool {
	return f == FreshnessFull
}

// Source 记录预测记录的来源文章信息。标题是去重的唯一依据。
type Source struct {
	ID          string `bson:"id" json:"id"`                   // 所属记录ID
	Link        string `bson:"link" json:"link"`               // 文章链接
	Publication string `bson:"publication" json:"publication"` // 发布媒体
	Title       string `bson:"title" json:"title"`             // 文章标题（去重键）
}

// TickerPrediction 是单个 ticker 的预测条目。
// 预测字段在记录创建时写入且不再修改；stock_price_* 六个实际价格
// 字段初始为空，由回填服务按阶段合并协议填充。
type TickerPrediction struct {
	Model             string  `bson:"model" json:"model"`                                 // 产出该预测的模型标签
	Ticker            string  `bson:"ticker" json:"ticker"`                               // 股票代码
	PredictedPrice1H  float64 `bson:"predicted_price_1hr" json:"predicted_price_1hr"`    // 1小时预测价
	PredictedPrice4H  float64 `bson:"predicted_price_4hrs" json:"predicted_price_4hrs"`  // 4小时预测价
	PredictedPrice24H float64 `bson:"predicted_price_24hrs" json:"predicted_price_24hrs"` // 24小时预测价
	Analysis          string  `bson:"stock_price_analysis" json:"stock_price_analysis"`  // 推理服务给出的分析理由
	Trend             string  `bson:"trend" json:"trend"`                                 // 趋势标签
	PercentChange     float64 `bson:"percent_change" json:"percent_change"`               // (24h-1h)/1h*100

	ActualPrice1H  *float64 `bson:"stock_price_1hr" json:"stock_price_1hr"`
	ActualPrice2H  *float64 `bson:"stock_price_2hrs" json:"stock_price_2hrs"`
	ActualPrice3H  *float64 `bson:"stock_price_3hrs" json:"stock_price_3hrs"`
	ActualPrice5H  *float64 `bson:"stock_price_5hrs" json:"stock_price_5hrs"`
	ActualPrice10H *float64 `bson:"stock_price_10hrs" json:"stock_price_10hrs"`
	ActualPrice24H *float64 `bson:"stock_price_24hrs" json:"stock_price_24hrs"`
}

// Backfilled 报告该条目的六个实际价格是否已全部填充。
func (p *TickerPrediction) Backfilled() bool {
	return p.ActualPrice1H != nil && p.ActualPrice2H != nil && p.ActualPrice3H != nil &&
		p.ActualPrice5H != nil && p.ActualPrice10H != nil && p.ActualPrice24H != nil
}

// PartiallyBackfilled 报告该条目是否至少有一个实际价格已填充。
func (p *TickerPrediction) PartiallyBackfilled() bool {
	return p.ActualPrice1H != nil || p.ActualPrice2H != nil || p.ActualPrice3H != nil ||
		p.ActualPrice5H != nil || p.ActualPrice10H != nil || p.ActualPrice24H != nil
}

// PredictionRecord 是持久化的核心实体。predictions 列表创建后不变，
// 只有实际价格与 Freshness 状态可以通过阶段合并协议更新。
type PredictionRecord struct {
	ID          string               `bson:"_id" json:"id"`                 // 记录唯一ID (UUID 字符串)
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`  // 入库时间
	Content     string               `bson:"content" json:"content"`        // 来源文章正文
	Category    string               `bson:"category" json:"category"`      // 文章分类
	Effect      string               `bson:"effect" json:"effect"`          // 推理服务给出的影响等级
	Freshness   Freshness            `bson:"freshness" json:"freshness"`    // 回填生命周期状态
	Sources     []Source             `bson:"sources" json:"sources"`        // 来源文章
	Embeddings  map[string][]float32 `bson:"embeddings" json:"-"`           // 各模型的文章向量
	Predictions []TickerPrediction   `bson:"stock_prediction" json:"stock_prediction"`
	StagedAt    time.Time            `bson:"staged_at,omitempty" json:"-"`  // 写入暂存区的时间（仅暂存副本携带）
}

// NextFreshness 根据当前回填完成度计算记录应处的状态。
// 状态只会前进，不会回退。
func (r *PredictionRecord) NextFreshness() Freshness {
	if r.Freshness == FreshnessFull {
		return FreshnessFull
	}
	all := len(r.Predictions) > 0
	any := false
	for i := range r.Predictions {
		if !r.Predictions[i].Backfilled() {
			all = false
		}
		if r.Predictions[i].PartiallyBackfilled() {
			any = true
		}
	}
	switch {
	case all:
		return FreshnessFull
	case any:
		return FreshnessPartial
	default:
		return r.Freshness
	}
}
