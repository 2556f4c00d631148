package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScanResultMissing 缺失列表顺序与角色定义一致
func TestScanResultMissing(t *testing.T) {
	scan := ScanResult{
		Artifacts: map[ArtifactKind]Artifact{
			ArtifactJava: {Kind: ArtifactJava, Found: true},
			ArtifactApex: {Kind: ArtifactApex},
			ArtifactOrds: {Kind: ArtifactOrds},
		},
	}

	missing := scan.Missing()
	require.Len(t, missing, 2)
	assert.Equal(t, ArtifactApex, missing[0].Kind)
	assert.Equal(t, ArtifactOrds, missing[1].Kind)
}

// TestAllMissing 任一安装包存在即不算全部缺失，空角色列表恒为 false
func TestAllMissing(t *testing.T) {
	scan := ScanResult{
		Artifacts: map[ArtifactKind]Artifact{
			ArtifactJava: {Kind: ArtifactJava, Found: true},
			ArtifactApex: {Kind: ArtifactApex},
			ArtifactOrds: {Kind: ArtifactOrds},
		},
	}

	assert.False(t, scan.AllMissing([]ArtifactKind{ArtifactJava, ArtifactApex}))
	assert.True(t, scan.AllMissing([]ArtifactKind{ArtifactApex, ArtifactOrds}))
	assert.False(t, scan.AllMissing(nil))
}

// TestStageCompleted 没有步骤的阶段不算完成
func TestStageCompleted(t *testing.T) {
	empty := &Stage{Key: "copy"}
	assert.False(t, empty.Completed())
	assert.Equal(t, 0, empty.DoneCount())

	stage := &Stage{
		Key:   "copy",
		Steps: []Step{{Title: "a"}, {Title: "b"}},
	}
	assert.False(t, stage.Completed())

	stage.Steps[0].Done = true
	assert.Equal(t, 1, stage.DoneCount())
	assert.False(t, stage.Completed())

	stage.Steps[1].Done = true
	assert.True(t, stage.Completed())
}

// TestPlanStageLookup 按标识查找阶段并返回可修改的指针
func TestPlanStageLookup(t *testing.T) {
	plan := &Plan{Stages: []Stage{{Key: "copy"}, {Key: "java"}}}

	require.NotNil(t, plan.Stage("java"))
	assert.Nil(t, plan.Stage("bogus"))

	// 返回的是清单内的指针，修改会反映到 Plan 上
	plan.Stage("copy").Steps = []Step{{Title: "a", Done: true}}
	assert.True(t, plan.Stages[0].Completed())
}

// TestPlanCompleted 空清单和含阻塞阶段的清单都不算完成
func TestPlanCompleted(t *testing.T) {
	assert.False(t, (&Plan{}).Completed())

	plan := &Plan{Stages: []Stage{
		{Key: "copy", Steps: []Step{{Done: true}}},
		{Key: "java", Blocked: true, Steps: []Step{{Done: true}}},
	}}
	assert.False(t, plan.Completed())

	plan.Stages[1].Blocked = false
	assert.True(t, plan.Completed())
}
