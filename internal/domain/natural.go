package domain

// NaturalCompare orders strings with embedded digit runs compared by
// numeric value, so "file2" sorts before "file10". Runs that are equal in
// value but differ in leading zeros fall back to the shorter run first.
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	zeroBias := 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			startA, startB := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			runA, runB := trimZeros(a[startA:i]), trimZeros(b[startB:j])
			if len(runA) != len(runB) {
				return compareInt(len(runA), len(runB))
			}
			if runA != runB {
				if runA < runB {
					return -1
				}
				return 1
			}
			if zeroBias == 0 {
				zeroBias = compareInt(i-startA, j-startB)
			}
			continue
		}
		if ca != cb {
			return compareInt(int(ca), int(cb))
		}
		i++
		j++
	}
	switch {
	case len(a)-i != len(b)-j:
		return compareInt(len(a)-i, len(b)-j)
	default:
		return zeroBias
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimZeros(run string) string {
	for len(run) > 1 && run[0] == '0' {
		run = run[1:]
	}
	return run
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
