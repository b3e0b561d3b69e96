package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewArticleClassificationImporter imports news-article relevance
// classifications produced by the upstream classifier. No relational columns.
func NewArticleClassificationImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{Schema: models.ArticleClassificationSchema}, store, logs, commits, source, logger)
}
