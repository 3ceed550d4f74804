package retrieve

import "github.com/fitloom/fitloom/core"

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during
// a search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorQuery(candidates []core.Metadata)
	AfterRerank(reordered []core.Metadata)
	Finish(results []core.Metadata)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterVectorQuery(_ []core.Metadata)   {}
func (n *noopMonitor) AfterRerank(_ []core.Metadata)        {}
func (n *noopMonitor) Finish(_ []core.Metadata)             {}
