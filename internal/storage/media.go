package storage

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ResolveMedia returns a copy of q with every blob: URL in its prompt and
// option media replaced by a fetchable URL from bs. Other URLs are kept.
func ResolveMedia(ctx context.Context, bs BlobStore, q quiz.Question) (quiz.Question, error) {
	if bs == nil {
		return q, nil
	}
	var err error
	if q.Prompt, err = resolveOne(ctx, bs, q.Prompt); err != nil {
		return quiz.Question{}, err
	}
	if len(q.Options) > 0 {
		opts := make([]quiz.Option, len(q.Options))
		for i, o := range q.Options {
			if o.Content, err = resolveOne(ctx, bs, o.Content); err != nil {
				return quiz.Question{}, err
			}
			if key, ok := BlobKey(o.ClickSound); ok {
				if o.ClickSound, err = bs.SignedURL(ctx, key); err != nil {
					return quiz.Question{}, err
				}
			}
			opts[i] = o
		}
		q.Options = opts
	}
	if q.LeftItems, err = resolveItems(ctx, bs, q.LeftItems); err != nil {
		return quiz.Question{}, err
	}
	if q.RightItems, err = resolveItems(ctx, bs, q.RightItems); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

func resolveItems(ctx context.Context, bs BlobStore, items []quiz.Item) ([]quiz.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	out := make([]quiz.Item, len(items))
	for i, it := range items {
		c, err := resolveOne(ctx, bs, it.Content)
		if err != nil {
			return nil, err
		}
		it.Content = c
		out[i] = it
	}
	return out, nil
}

func resolveOne(ctx context.Context, bs BlobStore, m quiz.Media) (quiz.Media, error) {
	key, ok := BlobKey(m.URL)
	if !ok {
		return m, nil
	}
	u, err := bs.SignedURL(ctx, key)
	if err != nil {
		return quiz.Media{}, err
	}
	m.URL = u
	return m, nil
}
