package services

import (
	"context"
	"testing"
	"time"

	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/types"
)

// Full lifecycle: sync a three-task document, start a program, activate the
// first task, grade all three, and observe completion with the mean score.
func TestProgramLifecycleToCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1", "t2", "t3")

	program, tasks, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if program.Progress.TotalTaskCount != 3 || program.Status != types.ProgramDraft {
		t.Fatalf("fresh program: %+v", program)
	}

	if _, err := env.program.ActivateTask(ctx, owner, program.ID, tasks[0].ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	mid, err := env.program.GetProgram(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mid.Status != types.ProgramInProgress {
		t.Fatalf("after activation: want=%s got=%s", types.ProgramInProgress, mid.Status)
	}

	for _, task := range tasks {
		if _, err := env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
			EntityType: types.EvaluationOfTask,
			EntityID:   task.ID,
			Score:      80,
			MaxScore:   100,
		}); err != nil {
			t.Fatalf("evaluate task %s: %v", task.TemplateID, err)
		}
	}

	final, err := env.program.GetProgram(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("get final: %v", err)
	}
	if final.Status != types.ProgramCompleted {
		t.Fatalf("final status: want=%s got=%s", types.ProgramCompleted, final.Status)
	}
	if final.Progress.CompletedTaskCount != 3 {
		t.Fatalf("completed count: want=3 got=%d", final.Progress.CompletedTaskCount)
	}
	if final.TotalScore != 80 {
		t.Fatalf("overall score: want=80 got=%d", final.TotalScore)
	}
	if final.CompletedAt == nil {
		t.Fatalf("completed_at not stamped")
	}
}

// Re-syncing a changed document updates the Scenario in place and leaves
// existing Programs untouched.
func TestResyncLeavesExistingProgramsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := testDocument("fractions", baseRevision, "t1", "t2")
	report, err := env.sync.SyncDocument(ctx, doc, false)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	program, _, err := env.program.StartProgram(ctx, owner, report.ScenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	before, err := env.scenario.GetScenario(ctx, report.ScenarioID)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}

	newer := testDocument("fractions", baseRevision.Add(time.Hour), "t1", "t2")
	newer.Languages["en"] = content.LanguageBlock{Title: "Fractions v2", Description: "Sharper description"}
	second, err := env.sync.SyncDocument(ctx, newer, false)
	if err != nil {
		t.Fatalf("re-sync: %v", err)
	}
	if second.Action != SyncUpdated || second.ScenarioID != report.ScenarioID {
		t.Fatalf("re-sync report: %+v", second)
	}

	after, err := env.scenario.GetScenario(ctx, report.ScenarioID)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("updated_at went backwards: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
	if after.Title.Get("en") != "Fractions v2" {
		t.Fatalf("title not updated: %q", after.Title.Get("en"))
	}
	for i, tpl := range after.TaskTemplates {
		if tpl.ID != before.TaskTemplates[i].ID {
			t.Fatalf("template id churned: before=%s after=%s", before.TaskTemplates[i].ID, tpl.ID)
		}
	}

	// The program snapshot is immune to the re-sync.
	reloaded, err := env.program.GetProgram(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("get program: %v", err)
	}
	if reloaded.Progress.TotalTaskCount != 2 {
		t.Fatalf("program total tasks changed: got=%d", reloaded.Progress.TotalTaskCount)
	}
}

func TestLatestEvaluationWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1")
	program, tasks, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	taskID := tasks[0].ID

	for _, score := range []float64{55, 90} {
		if _, err := env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
			EntityType: types.EvaluationOfTask, EntityID: taskID, Score: score, MaxScore: 100,
		}); err != nil {
			t.Fatalf("evaluate score=%v: %v", score, err)
		}
	}

	summary, err := env.progress.GetProgramSummary(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Tasks) != 1 || !summary.Tasks[0].Evaluated {
		t.Fatalf("summary tasks: %+v", summary.Tasks)
	}
	if summary.Tasks[0].Score != 90 {
		t.Fatalf("latest score: want=90 got=%v", summary.Tasks[0].Score)
	}
	if summary.OverallScore != 90 {
		t.Fatalf("overall: want=90 got=%d", summary.OverallScore)
	}
}

func TestOverallScoreIsRoundedMean(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1", "t2", "t3")
	program, tasks, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i, score := range []float64{70, 75, 81} {
		if _, err := env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
			EntityType: types.EvaluationOfTask, EntityID: tasks[i].ID, Score: score, MaxScore: 100,
		}); err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
	}

	final, err := env.program.GetProgram(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// (70+75+81)/3 = 75.33 -> 75
	if final.TotalScore != 75 {
		t.Fatalf("overall: want=75 got=%d", final.TotalScore)
	}
}

// A draft program that gets fully graded keeps its counts but does not jump
// straight to completed; only in_progress programs complete.
func TestDraftProgramDoesNotAutoComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1")
	program, tasks, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
		EntityType: types.EvaluationOfTask, EntityID: tasks[0].ID, Score: 100, MaxScore: 100,
	}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	reloaded, err := env.program.GetProgram(ctx, owner, program.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != types.ProgramDraft {
		t.Fatalf("status: want=%s got=%s", types.ProgramDraft, reloaded.Status)
	}
	if reloaded.Progress.CompletedTaskCount != 1 {
		t.Fatalf("completed count: want=1 got=%d", reloaded.Progress.CompletedTaskCount)
	}
}

func TestRecordEvaluationRejectsForeignTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1")
	program, _, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	otherScenario := syncedScenario(t, env, "x1")
	_, otherTasks, err := env.program.StartProgram(ctx, owner, otherScenario)
	if err != nil {
		t.Fatalf("start other: %v", err)
	}

	_, err = env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
		EntityType: types.EvaluationOfTask, EntityID: otherTasks[0].ID, Score: 50, MaxScore: 100,
	})
	if !lcerr.IsCode(err, lcerr.CodeNotFound) {
		t.Fatalf("want not_found for task outside program, got %v", err)
	}
}

func TestProgramEvaluationTargetsItsOwnProgram(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scenarioID := syncedScenario(t, env, "t1")
	program, _, err := env.program.StartProgram(ctx, owner, scenarioID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	evaluation, err := env.progress.RecordEvaluation(ctx, owner, program.ID, RecordEvaluationInput{
		EntityType: types.EvaluationOfProgram, Score: 88, MaxScore: 100,
	})
	if err != nil {
		t.Fatalf("program evaluation: %v", err)
	}
	if evaluation.EntityID != program.ID {
		t.Fatalf("entity id: want=%s got=%s", program.ID, evaluation.EntityID)
	}
}
