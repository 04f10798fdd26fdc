package planfile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/htse/internal/scheduler"
)

const samplePlan = `tasks:
  - key: research
    name: Research
    priority: 4
    deadline: 1
    cost: 2
  - key: design
    name: Design API
    priority: 8
    deadline: 3
    cost: 2
    subtasks: [schema]
    depends_on: [research]
  - key: schema
    name: Write schema
    priority: 6
    deadline: 2
    cost: 1
`

func TestLoad_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plans/sprint.yaml", []byte(samplePlan), 0644))

	plan, err := Load(fs, "/plans/sprint.yaml")
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 3)

	design := plan.Tasks[1]
	assert.Equal(t, "design", design.Key)
	assert.Equal(t, "Design API", design.Name)
	assert.Equal(t, 8, design.Priority)
	assert.Equal(t, []string{"schema"}, design.Subtasks)
	assert.Equal(t, []string{"research"}, design.DependsOn)
}

func TestLoad_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{"tasks": [{"key": "a", "name": "A", "priority": 5, "deadline": 0, "cost": 1, "completed": true}]}`
	require.NoError(t, afero.WriteFile(fs, "plan.JSON", []byte(doc), 0644))

	plan, err := Load(fs, "plan.JSON")
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	assert.True(t, plan.Tasks[0].Completed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "priority out of range",
			doc:     "tasks:\n  - {key: a, name: A, priority: 11, cost: 1}\n",
			wantMsg: "Priority",
		},
		{
			name:    "zero cost",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, cost: 0}\n",
			wantMsg: "Cost",
		},
		{
			name:    "negative deadline",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, deadline: -1, cost: 1}\n",
			wantMsg: "Deadline",
		},
		{
			name:    "missing key",
			doc:     "tasks:\n  - {name: A, priority: 5, cost: 1}\n",
			wantMsg: "Key",
		},
		{
			name:    "duplicate key",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, cost: 1}\n  - {key: a, name: B, priority: 5, cost: 1}\n",
			wantMsg: "duplicate",
		},
		{
			name:    "unknown subtask",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, cost: 1, subtasks: [b]}\n",
			wantMsg: "unknown subtask",
		},
		{
			name:    "unknown dependency",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, cost: 1, depends_on: [b]}\n",
			wantMsg: "unknown task",
		},
		{
			name:    "self dependency",
			doc:     "tasks:\n  - {key: a, name: A, priority: 5, cost: 1, depends_on: [a]}\n",
			wantMsg: "itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			require.ErrorIs(t, err, ErrInvalidPlan)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("tasks: [unterminated"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte("tasks: []"), Format("toml"))
	assert.Error(t, err)
}

func TestParse_EmptyPlan(t *testing.T) {
	plan, err := Parse([]byte("tasks: []\n"), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
}

func TestBuild(t *testing.T) {
	plan, err := Parse([]byte(samplePlan), FormatYAML)
	require.NoError(t, err)

	g, ids, err := plan.Build()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"research": 1, "design": 2, "schema": 3}, ids)
	assert.Equal(t, 3, g.Len())

	design, ok := g.FindByID(ids["design"])
	require.True(t, ok)
	assert.Equal(t, "Design API", design.Name)
	assert.Equal(t, 8, design.Priority())
	assert.Equal(t, []int{ids["schema"]}, design.Subtasks())
	assert.Equal(t, []int{ids["research"]}, design.Dependencies())

	roots := g.RootTasks()
	require.Len(t, roots, 2)
	assert.Equal(t, ids["research"], roots[0].ID)
	assert.Equal(t, ids["design"], roots[1].ID)
}

func TestBuild_CompletedTasks(t *testing.T) {
	plan := &Plan{Tasks: []TaskSpec{
		{Key: "done", Name: "Done", Priority: 5, Cost: 1, Completed: true},
		{Key: "todo", Name: "Todo", Priority: 5, Cost: 1, DependsOn: []string{"done"}},
	}}
	require.NoError(t, plan.Validate())

	g, ids, err := plan.Build()
	require.NoError(t, err)

	done, _ := g.FindByID(ids["done"])
	todo, _ := g.FindByID(ids["todo"])
	assert.Equal(t, scheduler.TaskCompleted, done.Status())
	assert.True(t, todo.IsReady(g.FindByID))
}

func TestBuild_KeepsCycles(t *testing.T) {
	doc := "tasks:\n  - {key: a, name: A, priority: 5, cost: 1, depends_on: [b]}\n  - {key: b, name: B, priority: 5, cost: 1, depends_on: [a]}\n"
	plan, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)

	g, _, err := plan.Build()
	require.NoError(t, err)
	assert.True(t, g.HasCycle())
}

func TestPlanEditing(t *testing.T) {
	plan, err := Parse([]byte(samplePlan), FormatYAML)
	require.NoError(t, err)

	require.NoError(t, plan.Add(TaskSpec{Key: "docs", Name: "Docs", Priority: 3, Deadline: 5, Cost: 1}))
	require.NoError(t, plan.Link("design", "docs"))
	require.NoError(t, plan.Link("design", "docs")) // duplicate ignored
	require.NoError(t, plan.Depend("docs", "schema"))

	design, ok := plan.Find("design")
	require.True(t, ok)
	assert.Equal(t, []string{"schema", "docs"}, design.Subtasks)

	docs, _ := plan.Find("docs")
	assert.Equal(t, []string{"schema"}, docs.DependsOn)
}

func TestPlanEditing_RejectedChangesRollBack(t *testing.T) {
	plan, err := Parse([]byte(samplePlan), FormatYAML)
	require.NoError(t, err)

	assert.ErrorIs(t, plan.Add(TaskSpec{Key: "design", Name: "Again", Priority: 5, Cost: 1}), ErrInvalidPlan)
	assert.Len(t, plan.Tasks, 3)

	assert.ErrorIs(t, plan.Add(TaskSpec{Key: "bad", Name: "Bad", Priority: 0, Cost: 1}), ErrInvalidPlan)
	assert.Len(t, plan.Tasks, 3)

	assert.ErrorIs(t, plan.Link("design", "missing"), ErrInvalidPlan)
	design, _ := plan.Find("design")
	assert.Equal(t, []string{"schema"}, design.Subtasks)

	assert.ErrorIs(t, plan.Depend("schema", "schema"), ErrInvalidPlan)
	schema, _ := plan.Find("schema")
	assert.Empty(t, schema.DependsOn)

	assert.ErrorIs(t, plan.Depend("ghost", "schema"), ErrInvalidPlan)
}

func TestSaveAndLoad(t *testing.T) {
	for _, path := range []string{"/out/plan.yaml", "/out/plan.json"} {
		t.Run(path, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			plan, err := Parse([]byte(samplePlan), FormatYAML)
			require.NoError(t, err)

			require.NoError(t, Save(fs, path, plan))

			loaded, err := Load(fs, path)
			require.NoError(t, err)
			assert.Equal(t, plan, loaded)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("a/b/plan.json"))
	assert.Equal(t, FormatYAML, FormatFor("plan.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("plan.yml"))
	assert.Equal(t, FormatYAML, FormatFor("plan"))
}
