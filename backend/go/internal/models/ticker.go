package models

// Ticker 是一条参考数据：被跟踪的股票代码及其在各 embedding
// 模型下的向量。目录本身由外部维护，这里只读取与刷新向量。
type Ticker struct {
	Symbol     string               `bson:"_id" json:"ticker"`                             // 股票代码
	Name       string               `bson:"name" json:"name"`                              // 公司名称
	Sector     string               `bson:"sector" json:"sector"`                          // 行业
	Summary    string               `bson:"long_business_summary" json:"-"`                // 业务描述，向量的生成来源
	Embeddings map[string][]float32 `bson:"embeddings" json:"-"`                           // 模型名 -> 向量
}
