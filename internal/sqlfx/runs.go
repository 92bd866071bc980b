package sqlfx

import (
	"github.com/jmoiron/sqlx"

	"github.com/snapdir/snapdir/pkg/domain"
	"github.com/snapdir/snapdir/pkg/http/handler"
	"github.com/snapdir/snapdir/pkg/storage"
)

func RunsRepository(db *sqlx.DB) (
	*storage.RunRepository,
	domain.RunRepository,
	handler.RunRepository,
) {
	repo := storage.NewRunRepository(db)

	return repo, repo, repo
}
