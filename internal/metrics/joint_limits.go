package metrics

import "github.com/san-kum/modrob/internal/dynamo"

// JointLimits is the fraction of samples at which every joint position lies
// within [Lower, Upper].
type JointLimits struct {
	Lower, Upper []float64

	violations int
	samples    int
}

func NewJointLimits(lower, upper []float64) *JointLimits {
	return &JointLimits{Lower: lower, Upper: upper}
}

func (j *JointLimits) Name() string { return "joint_limits" }

func (j *JointLimits) Observe(x dynamo.State, u dynamo.Control, t float64) {
	j.samples++
	for i := range j.Lower {
		if x[i] < j.Lower[i] || x[i] > j.Upper[i] {
			j.violations++
			return
		}
	}
}

func (j *JointLimits) Value() float64 {
	if j.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(j.violations)/float64(j.samples)
}

func (j *JointLimits) Reset() {
	j.violations = 0
	j.samples = 0
}
