package converter

import "github.com/DRSN-tech/movie-chat/internal/domain"

func ToRedisModel(turn domain.Turn) TurnRedisModel {
	return TurnRedisModel{
		Role:    turn.Role,
		Content: turn.Content,
	}
}

func ToDomain(model TurnRedisModel) domain.Turn {
	return domain.Turn{
		Role:    model.Role,
		Content: model.Content,
	}
}
