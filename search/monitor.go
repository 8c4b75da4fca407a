package search

import "github.com/halcyon-labs/recall/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	QueryEmbeddingFailed(err error)
	AfterKeywordPass(kind core.EntityKind, candidates []*Candidate)
	AfterVectorPass(kind core.EntityKind, candidates []*Candidate)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                    {}
func (n *noopMonitor) QueryEmbeddingFailed(_ error)                      {}
func (n *noopMonitor) AfterKeywordPass(_ core.EntityKind, _ []*Candidate) {}
func (n *noopMonitor) AfterVectorPass(_ core.EntityKind, _ []*Candidate)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                     {}
