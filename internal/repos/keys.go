package repos

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/types"
)

// Logical key layout, shared by every backend:
//
//	scenarios/{scenarioId}
//	{owner}/programs/{programId}
//	{owner}/programs/{programId}/tasks/{taskId}
//	{owner}/programs/{programId}/tasks/{taskId}/logs/{seq}-{logId}
//	{owner}/evaluations/{entityType}/{entityId}/{seq}-{evaluationId}
//	{owner}/tracks/{trackId}
//
// Backends that support prefix listing rely on this hierarchy for
// parent-scoped queries. Sequence segments are zero-padded so
// lexicographic key order equals append order.

const scenarioPrefix = "scenarios/"

func scenarioKey(id uuid.UUID) string {
	return scenarioPrefix + id.String()
}

func programPrefix(owner string) string {
	return owner + "/programs/"
}

func programKey(owner string, id uuid.UUID) string {
	return programPrefix(owner) + id.String()
}

func taskPrefix(owner string, programID uuid.UUID) string {
	return programKey(owner, programID) + "/tasks/"
}

func taskKey(owner string, programID, taskID uuid.UUID) string {
	return taskPrefix(owner, programID) + taskID.String()
}

func logPrefix(owner string, programID, taskID uuid.UUID) string {
	return taskKey(owner, programID, taskID) + "/logs/"
}

func logKey(owner string, programID, taskID uuid.UUID, seq uint64, id uuid.UUID) string {
	return fmt.Sprintf("%s%012d-%s", logPrefix(owner, programID, taskID), seq, id)
}

func evaluationPrefix(owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) string {
	return fmt.Sprintf("%s/evaluations/%s/%s/", owner, entityType, entityID)
}

func evaluationKey(owner string, entityType types.EvaluationEntityType, entityID uuid.UUID, seq uint64, id uuid.UUID) string {
	return fmt.Sprintf("%s%012d-%s", evaluationPrefix(owner, entityType, entityID), seq, id)
}

func trackPrefix(owner string) string {
	return owner + "/tracks/"
}

func trackKey(owner string, id uuid.UUID) string {
	return trackPrefix(owner) + id.String()
}
