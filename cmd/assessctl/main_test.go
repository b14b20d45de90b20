package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"metahub-service/service/assessment"
	"metahub-service/service/models"
	"metahub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fixtures(t *testing.T) (assetsPath, evidencePath string) {
	dir := t.TempDir()
	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	assets := []models.AssetRecord{
		testutil.NewAsset("g1", testutil.WithAttribute("DESCRIPTION", "orders")),
		testutil.NewAsset("g2", testutil.WithConnector("bigquery")),
	}
	obs := []models.EvidenceObservation{
		*testutil.NewObservation("g1", "catalog.owner_users", []interface{}{"alice"}, ts),
		*testutil.NewObservation("g2", "catalog.owner_users", []interface{}{}, ts),
	}
	return writeJSON(t, dir, "assets.json", assets), writeJSON(t, dir, "evidence.json", obs)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	assetsPath, evidencePath := fixtures(t)

	out, err := execute(t, "run", "--assets", assetsPath, "--evidence", evidencePath, "--template", "core_weighted", "--adapter", "row")
	require.NoError(t, err, out)

	var outcome assessment.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, "row", outcome.Run.Adapter)
	assert.Equal(t, "adhoc", outcome.Run.RunLabel)
	require.Len(t, outcome.AssessmentResults, 2)
	assert.Equal(t, "g1", outcome.AssessmentResults[0].AssetKey)

	_, err = execute(t, "run", "--assets", assetsPath, "--template", "missing")
	assert.ErrorIs(t, err, assessment.ErrTemplateNotFound)

	_, err = execute(t, "run", "--template", "core_weighted")
	assert.Error(t, err, "缺少 --assets")
}

func TestGapsCommand(t *testing.T) {
	assetsPath, evidencePath := fixtures(t)

	out, err := execute(t, "gaps", "--assets", assetsPath, "--evidence", evidencePath, "--fields", "owner_users,description")
	require.NoError(t, err, out)

	var plan assessment.PlanResult
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Population)
	assert.NotEmpty(t, plan.Gaps)
}

func TestRollupCommand(t *testing.T) {
	assetsPath, evidencePath := fixtures(t)

	out, err := execute(t, "rollup", "--assets", assetsPath, "--evidence", evidencePath, "--dimension", "connector")
	require.NoError(t, err, out)
	assert.Contains(t, out, "bigquery")

	_, err = execute(t, "rollup", "--assets", assetsPath, "--dimension", "planet")
	assert.ErrorIs(t, err, assessment.ErrInvalidRequest)
}

func TestCatalogValidate(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fields:\n  - id: x\n    source: {type: teleport}\n"), 0o644))

	_, err := execute(t, "catalog", "validate", bad)
	assert.Error(t, err)

	_, err = execute(t, "catalog", "validate")
	assert.Error(t, err, "缺少文件参数")

	out, err := execute(t, "catalog", "validate", filepath.Join("..", "..", "service", "catalog", "builtin.yaml"))
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "目录有效"))
}
