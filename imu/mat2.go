package imu

// Fixed-size 2x2 matrix and 2-vector arithmetic for the Kalman filter.
// Value types, no allocation in the sample path.

type vec2 [2]float64

type mat2 [4]float64 // row-major: [a b; c d]

var identity2 = mat2{1, 0, 0, 1}

func diag2(a, d float64) mat2 {
	return mat2{a, 0, 0, d}
}

func (v vec2) add(o vec2) vec2 {
	return vec2{v[0] + o[0], v[1] + o[1]}
}

func (v vec2) sub(o vec2) vec2 {
	return vec2{v[0] - o[0], v[1] - o[1]}
}

func (m mat2) add(o mat2) mat2 {
	return mat2{m[0] + o[0], m[1] + o[1], m[2] + o[2], m[3] + o[3]}
}

func (m mat2) sub(o mat2) mat2 {
	return mat2{m[0] - o[0], m[1] - o[1], m[2] - o[2], m[3] - o[3]}
}

func (m mat2) mul(o mat2) mat2 {
	return mat2{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
	}
}

func (m mat2) mulVec(v vec2) vec2 {
	return vec2{m[0]*v[0] + m[1]*v[1], m[2]*v[0] + m[3]*v[1]}
}

func (m mat2) inv() mat2 {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		// A singular covariance cannot occur with non-zero Q and R; fall
		// back to identity rather than divide by zero.
		return identity2
	}
	inv := 1.0 / det
	return mat2{m[3] * inv, -m[1] * inv, -m[2] * inv, m[0] * inv}
}
