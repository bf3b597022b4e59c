package models

// CandidateScore 是某一 embedding 模型下 (ticker, 相似度) 的打分结果。
// 相似度取值范围 [-1, 1]，排序按相似度降序，同分按 ticker 升序，
// 以保证结果确定。
type CandidateScore struct {
	Ticker     string  `json:"ticker"`
	Similarity float64 `json:"similarity"`
}

// Candidate 是候选漏斗的最终输出：一个去重后的 ticker，
// 以及把它排进前列的各模型的来源信息（用于构造提示词）。
type Candidate struct {
	Ticker string             `json:"ticker"`
	Models []string           `json:"models"` // 按配置顺序排列的模型名
	Scores map[string]float64 `json:"scores"` // 模型名 -> 相似度
}
