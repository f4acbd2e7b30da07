package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	pose     *Pose
	sequence []*Pose
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose returned by every call to Detect.
func (m *MockDetector) SetPose(pose *Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
	m.sequence = nil
}

// SetSequence scripts one result per Detect call. A nil entry means no body.
// Once the sequence is used up Detect falls back to the pose set by SetPose.
func (m *MockDetector) SetSequence(poses []*Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append([]*Pose(nil), poses...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted pose, the fixed pose, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.pose, nil
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// leg positions a hip, knee and ankle in normalized coordinates.
type leg struct {
	hip, knee, ankle Point
}

var (
	leftStanding  = leg{hip: Point{X: 0.45, Y: 0.55}, knee: Point{X: 0.45, Y: 0.72}, ankle: Point{X: 0.45, Y: 0.90}}
	rightStanding = leg{hip: Point{X: 0.55, Y: 0.55}, knee: Point{X: 0.55, Y: 0.72}, ankle: Point{X: 0.55, Y: 0.90}}

	// Upright torso, thigh in line with it, shank folded back behind the knee.
	leftTucked  = leg{hip: Point{X: 0.45, Y: 0.55}, knee: Point{X: 0.45, Y: 0.72}, ankle: Point{X: 0.30, Y: 0.65}}
	rightTucked = leg{hip: Point{X: 0.55, Y: 0.55}, knee: Point{X: 0.55, Y: 0.72}, ankle: Point{X: 0.70, Y: 0.65}}
)

// buildPose assembles a full-body pose facing the camera from the two legs.
func buildPose(left, right leg) *Pose {
	p := &Pose{Score: 0.95}

	p.Points[Nose] = Point{X: 0.50, Y: 0.12}
	p.Points[LeftEyeInner] = Point{X: 0.49, Y: 0.10}
	p.Points[LeftEye] = Point{X: 0.48, Y: 0.10}
	p.Points[LeftEyeOuter] = Point{X: 0.47, Y: 0.10}
	p.Points[RightEyeInner] = Point{X: 0.51, Y: 0.10}
	p.Points[RightEye] = Point{X: 0.52, Y: 0.10}
	p.Points[RightEyeOuter] = Point{X: 0.53, Y: 0.10}
	p.Points[LeftEar] = Point{X: 0.46, Y: 0.11}
	p.Points[RightEar] = Point{X: 0.54, Y: 0.11}
	p.Points[MouthLeft] = Point{X: 0.49, Y: 0.15}
	p.Points[MouthRight] = Point{X: 0.51, Y: 0.15}

	p.Points[LeftShoulder] = Point{X: 0.45, Y: 0.30}
	p.Points[RightShoulder] = Point{X: 0.55, Y: 0.30}
	p.Points[LeftElbow] = Point{X: 0.40, Y: 0.42}
	p.Points[RightElbow] = Point{X: 0.60, Y: 0.42}
	p.Points[LeftWrist] = Point{X: 0.38, Y: 0.52}
	p.Points[RightWrist] = Point{X: 0.62, Y: 0.52}
	p.Points[LeftPinky] = Point{X: 0.37, Y: 0.54}
	p.Points[RightPinky] = Point{X: 0.63, Y: 0.54}
	p.Points[LeftIndex] = Point{X: 0.38, Y: 0.55}
	p.Points[RightIndex] = Point{X: 0.62, Y: 0.55}
	p.Points[LeftThumb] = Point{X: 0.39, Y: 0.54}
	p.Points[RightThumb] = Point{X: 0.61, Y: 0.54}

	p.Points[LeftHip] = left.hip
	p.Points[LeftKnee] = left.knee
	p.Points[LeftAnkle] = left.ankle
	p.Points[LeftHeel] = Point{X: left.ankle.X - 0.01, Y: left.ankle.Y + 0.02}
	p.Points[LeftFootIndex] = Point{X: left.ankle.X + 0.02, Y: left.ankle.Y + 0.03}

	p.Points[RightHip] = right.hip
	p.Points[RightKnee] = right.knee
	p.Points[RightAnkle] = right.ankle
	p.Points[RightHeel] = Point{X: right.ankle.X + 0.01, Y: right.ankle.Y + 0.02}
	p.Points[RightFootIndex] = Point{X: right.ankle.X - 0.02, Y: right.ankle.Y + 0.03}

	for i := range p.Points {
		p.Points[i].Visibility = 0.99
	}
	return p
}

// StandingPose returns a preset pose with both legs straight.
func StandingPose() *Pose {
	return buildPose(leftStanding, rightStanding)
}

// RightJumpPose returns a preset pose where only the leg counted as the
// right side (landmarks 23/25/27 in the mirrored camera view) is tucked.
func RightJumpPose() *Pose {
	return buildPose(leftTucked, rightStanding)
}

// LeftJumpPose returns a preset pose where only the leg counted as the
// left side (landmarks 24/26/28) is tucked.
func LeftJumpPose() *Pose {
	return buildPose(leftStanding, rightTucked)
}

// DoubleJumpPose returns a preset pose with both legs tucked at once.
func DoubleJumpPose() *Pose {
	return buildPose(leftTucked, rightTucked)
}
