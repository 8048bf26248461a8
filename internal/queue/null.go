package queue

// Null drops every message; used when no broker is configured.
type Null struct {
}

func (n *Null) Publish(queue string, data interface{}) error {
	return nil
}

func (n *Null) CreateQueue(queue string) error {
	return nil
}
