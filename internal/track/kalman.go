package track

// Predict advances a track's state and covariance one step under the
// constant-acceleration model:
//
//	F = [[1,0,dt,0,dt²/2,0],
//	     [0,1,0,dt,0,dt²/2],
//	     [0,0,1,0,dt,0],
//	     [0,0,0,1,0,dt],
//	     [0,0,0,0,1,0],
//	     [0,0,0,0,0,1]]
//
// Worked directly against the flattened state rather than building F as a
// matrix, to avoid allocating on the hot path.
func (t *Track) Predict(dt, q float64) {
	halfDt2 := 0.5 * dt * dt

	x, y := t.X[0], t.X[1]
	vx, vy := t.X[2], t.X[3]
	ax, ay := t.X[4], t.X[5]

	t.X[0] = x + vx*dt + ax*halfDt2
	t.X[1] = y + vy*dt + ay*halfDt2
	t.X[2] = vx + ax*dt
	t.X[3] = vy + ay*dt
	t.X[4] = ax
	t.X[5] = ay

	F := stateTransition(dt)
	t.P = matMulFPFt(F, t.P)

	Q := processNoise(dt, q)
	for i := range t.P {
		t.P[i] += Q[i]
	}
}

// Update performs the Kalman measurement update against a 2-D position
// measurement (x, y) with adaptive measurement noise r.
func (t *Track) Update(measX, measY, r float64) {
	// Innovation y = z - Hx, H extracts (x, y).
	innovX := measX - t.X[0]
	innovY := measY - t.X[1]

	// S = H P H^T + R, a 2x2 block of P plus R on the diagonal.
	s00 := t.P[0*stateDim+0] + r
	s01 := t.P[0*stateDim+1]
	s10 := t.P[1*stateDim+0]
	s11 := t.P[1*stateDim+1] + r

	det := s00*s11 - s01*s10
	if det < minDeterminant {
		return // singular innovation covariance, skip update
	}
	invS00 := s11 / det
	invS01 := -s01 / det
	invS10 := -s10 / det
	invS11 := s00 / det

	// K = P H^T S^-1, a stateDim x 2 matrix.
	var K [stateDim * 2]float64
	for i := 0; i < stateDim; i++ {
		pi0 := t.P[i*stateDim+0]
		pi1 := t.P[i*stateDim+1]
		K[i*2+0] = pi0*invS00 + pi1*invS10
		K[i*2+1] = pi0*invS01 + pi1*invS11
	}

	for i := 0; i < stateDim; i++ {
		t.X[i] += K[i*2+0]*innovX + K[i*2+1]*innovY
	}

	// P = (I - K H) P; (K H)[i][j] = K[i][0] if j==0, K[i][1] if j==1, else 0.
	t.P = multiplyIMinusKHWithP(K, t.P)
}

const minDeterminant = 1e-6

// multiplyIMinusKHWithP computes (I - K H) * P where (K H) has nonzero
// columns only at 0 and 1.
func multiplyIMinusKHWithP(K [stateDim * 2]float64, P [stateDim * stateDim]float64) [stateDim * stateDim]float64 {
	var imkh [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			identity := 0.0
			if i == j {
				identity = 1
			}
			var kh float64
			switch j {
			case 0:
				kh = K[i*2+0]
			case 1:
				kh = K[i*2+1]
			}
			imkh[i*stateDim+j] = identity - kh
		}
	}

	var out [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var sum float64
			for k := 0; k < stateDim; k++ {
				sum += imkh[i*stateDim+k] * P[k*stateDim+j]
			}
			out[i*stateDim+j] = sum
		}
	}
	return out
}

// stateTransition returns the flattened F matrix for time step dt.
func stateTransition(dt float64) [stateDim * stateDim]float64 {
	halfDt2 := 0.5 * dt * dt
	var F [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		F[i*stateDim+i] = 1
	}
	F[0*stateDim+2] = dt
	F[0*stateDim+4] = halfDt2
	F[1*stateDim+3] = dt
	F[1*stateDim+5] = halfDt2
	F[2*stateDim+4] = dt
	F[3*stateDim+5] = dt
	return F
}

// matMulFPFt computes F * P * F^T for flattened stateDim x stateDim matrices.
func matMulFPFt(F, P [stateDim * stateDim]float64) [stateDim * stateDim]float64 {
	var FP [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var sum float64
			for k := 0; k < stateDim; k++ {
				sum += F[i*stateDim+k] * P[k*stateDim+j]
			}
			FP[i*stateDim+j] = sum
		}
	}

	var out [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var sum float64
			for k := 0; k < stateDim; k++ {
				// F^T[k][j] == F[j][k]
				sum += FP[i*stateDim+k] * F[j*stateDim+k]
			}
			out[i*stateDim+j] = sum
		}
	}
	return out
}

// processNoise returns a flattened constant-acceleration Q block scaled by
// scalar q, applied only to the diagonal for simplicity.
func processNoise(dt, q float64) [stateDim * stateDim]float64 {
	var Q [stateDim * stateDim]float64
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt
	Q[0*stateDim+0] = q * dt4 / 4
	Q[1*stateDim+1] = q * dt4 / 4
	Q[2*stateDim+2] = q * dt2
	Q[3*stateDim+3] = q * dt2
	Q[4*stateDim+4] = q * dt3 / 3
	Q[5*stateDim+5] = q * dt3 / 3
	return Q
}
