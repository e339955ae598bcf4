package queue

// 主题命名规范：iolabel.<域>.<动作>，尽量稳定且向后兼容.
const (
	TopicLogClassified = "iolabel.log.classified" // 单个日志分类成功，负载为完整分类结果
	TopicLogFailed     = "iolabel.log.failed"     // 单个日志分类失败
	TopicIndexUpdated  = "iolabel.index.updated"  // watch 完成一轮索引

	// TopicWildcard NATS 下订阅全部事件.
	TopicWildcard = "iolabel.>"
)

// Topics 全部事件主题.
var Topics = []string{TopicLogClassified, TopicLogFailed, TopicIndexUpdated}
