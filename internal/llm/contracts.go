package llm

import "context"

// ArticleRequest carries everything the generator needs for one blog post.
type ArticleRequest struct {
	Keyword string
	Persona string // system role; defaults to the skincare persona when empty
	Brief   string // optional cleaned content brief from the optimization report
}

// Article is the generated post.
type Article struct {
	Text string
}

// Generator is the interface the pipeline depends on. One call, no retry.
type Generator interface {
	GenerateArticle(ctx context.Context, req ArticleRequest) (Article, error)
}
