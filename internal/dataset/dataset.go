package dataset

import (
	"encoding/json"
	"os"

	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/jimlawless/whereami"
)

// Load читает датасет фильмов из JSON-файла. Датасет может содержать
// заранее посчитанные векторы в поле vector.
func Load(path string) ([]domain.Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var movies []domain.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return movies, nil
}
