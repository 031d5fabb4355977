package compose

import (
	"errors"
	"fmt"
)

// ErrStageOrder is returned when composer stage is requested out of order.
var ErrStageOrder = errors.New("composition stage out of order")

// Stage is composition stage reached, each one is precondition for the next.
type Stage int

const (
	StageInit Stage = iota
	StageStyleStaged
	StageStaticStaged
	StageContentStaged
	StageCoverStaged
	StageNavigationRendered
	StagePackageRendered
	StageArchived
)

var stageNames = [...]string{
	StageInit:               "init",
	StageStyleStaged:        "style-staged",
	StageStaticStaged:       "static-staged",
	StageContentStaged:      "content-staged",
	StageCoverStaged:        "cover-staged",
	StageNavigationRendered: "navigation-rendered",
	StagePackageRendered:    "package-rendered",
	StageArchived:           "archived",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}
