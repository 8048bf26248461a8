// Package queue publishes run reports for external consumers such as a
// dashboard; the pipeline never consumes anything back.
package queue

type Channel interface {
	Publish(queue string, data interface{}) (err error)
	CreateQueue(queue string) (err error)
}
