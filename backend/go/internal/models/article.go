package models

import "time"

// Article 是上游抓取服务写入的一篇待处理文章。
// 抓取后不可变；处理流水线要么跳过（标题重复），要么将其
// 消费为一条 PredictionRecord。
type Article struct {
	Title       string    `bson:"title" json:"title"`             // 标题，精确匹配的去重键
	Link        string    `bson:"link" json:"link"`               // 原文链接
	Publication string    `bson:"publication" json:"publication"` // 发布媒体
	Author      string    `bson:"author" json:"author"`           // 作者
	Category    string    `bson:"category" json:"category"`       // 分类
	Content     string    `bson:"content" json:"content"`         // 正文
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
}
