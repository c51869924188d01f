package progress

// Milestone is one of the checklist flags tracked for a candidate.
type Milestone string

const (
	Orientation                   Milestone = "orientation"
	ResumeRebuilding              Milestone = "resumeRebuilding"
	ResumeConfirmed               Milestone = "resumeConfirmed"
	PortfolioBuildingAndConfirmed Milestone = "portfolioBuildingAndConfirmed"
	TechDistributionAndExtension  Milestone = "techDistributionAndExtension"
	CheatSheetBuiltOut            Milestone = "cheatSheetBuiltOut"
	HasAppliedEnoughJobs          Milestone = "hasAppliedEnoughJobs"
)

// AllMilestones lists every flag that counts toward overall progress, in display order.
var AllMilestones = []Milestone{
	Orientation,
	ResumeRebuilding,
	ResumeConfirmed,
	PortfolioBuildingAndConfirmed,
	TechDistributionAndExtension,
	CheatSheetBuiltOut,
	HasAppliedEnoughJobs,
}

var milestoneLabels = map[Milestone]string{
	Orientation:                   "Orientation Complete",
	ResumeRebuilding:              "Resume Rebuilt",
	ResumeConfirmed:               "Resume Confirmed",
	PortfolioBuildingAndConfirmed: "Portfolio Built & Confirmed",
	TechDistributionAndExtension:  "Tech Stack Distribution & Extension",
	CheatSheetBuiltOut:            "Cheat Sheet Built Out",
	HasAppliedEnoughJobs:          "Applied to Enough Jobs",
}

// Label returns the human readable checklist text.
func (m Milestone) Label() string {
	if label, ok := milestoneLabels[m]; ok {
		return label
	}
	return string(m)
}

// Valid reports whether m is a known milestone key.
func (m Milestone) Valid() bool {
	_, ok := milestoneLabels[m]
	return ok
}

// stageRequirements is fixed; order matters for checklist display.
var stageRequirements = [StageCount][]Milestone{
	{Orientation, ResumeRebuilding},
	{ResumeConfirmed, PortfolioBuildingAndConfirmed},
	{TechDistributionAndExtension},
	{CheatSheetBuiltOut, HasAppliedEnoughJobs},
	nil,
}

// RequiredMilestones returns the prerequisites of a stage. Out of range stages have none.
func RequiredMilestones(stage int) []Milestone {
	if !ValidStage(stage) {
		return nil
	}
	req := stageRequirements[stage-1]
	out := make([]Milestone, len(req))
	copy(out, req)
	return out
}
