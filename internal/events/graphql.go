package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
// CacheControl is the Cache-Control value computed for the response.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	CacheControl  string
	Duration      time.Duration
}
