// Package rerank implements the LLM reordering step of the retrieval
// pipeline. The vector store returns candidates in similarity order; the
// reranker asks a chat model to reorder them by relevance to the query and
// falls back to the similarity order whenever the model cannot be trusted.
package rerank
