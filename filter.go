package pngenc

// Predictor selects which of the five PNG scanline filters the frame
// encoder applies, or PredictorMixed to pick the cheapest one per row.
type Predictor uint8

const (
	PredictorNone Predictor = iota
	PredictorSub
	PredictorUp
	PredictorAvg
	PredictorPaeth
	PredictorMixed
)

// abs8 is the absolute value of a byte interpreted as a signed int8:
// bytes at or above 128 count as 256-byte, per the mixed-mode cost
// function's definition.
func abs8(d byte) int {
	if d < 128 {
		return int(d)
	}
	return 256 - int(d)
}

func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := absInt(p - int(a))
	pb := absInt(p - int(b))
	pc := absInt(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func filterNone(dst, src []byte) {
	copy(dst, src)
}

func filterSub(dst, src []byte, bpp int) {
	for i, s := range src {
		var a byte
		if i >= bpp {
			a = src[i-bpp]
		}
		dst[i] = s - a
	}
}

func filterUp(dst, src, top []byte) {
	for i, s := range src {
		dst[i] = s - top[i]
	}
}

func filterAvg(dst, src, top []byte, bpp int) {
	for i, s := range src {
		var a int
		if i >= bpp {
			a = int(src[i-bpp])
		}
		dst[i] = s - byte((a+int(top[i]))/2)
	}
}

func filterPaeth(dst, src, top []byte, bpp int) {
	for i, s := range src {
		var a, c byte
		if i >= bpp {
			a = src[i-bpp]
			c = top[i-bpp]
		}
		dst[i] = s - paethPredictor(a, top[i], c)
	}
}

// filterRow fills dst[0] with the predictor byte actually used, and
// dst[1:1+len(src)] with the filtered scanline. top is nil for row 0 of
// an image or the first contributing row of an Adam7 pass; in that case
// predictors Up, Avg, and Paeth fall back to Sub, per the predictor's
// own definition rather than as a special case in the caller. It returns
// the predictor id used.
func filterRow(dst, src, top []byte, bpp int, want Predictor) int {
	id := want
	if top == nil && (id == PredictorUp || id == PredictorAvg || id == PredictorPaeth) {
		id = PredictorSub
	}

	dst[0] = byte(id)
	body := dst[1 : 1+len(src)]
	switch id {
	case PredictorNone:
		filterNone(body, src)
	case PredictorSub:
		filterSub(body, src, bpp)
	case PredictorUp:
		filterUp(body, src, top)
	case PredictorAvg:
		filterAvg(body, src, top, bpp)
	case PredictorPaeth:
		filterPaeth(body, src, top, bpp)
	}
	return int(id)
}

// rowCost sums |int8(byte)| over a filtered row, predictor byte included,
// per the mixed-mode selection rule.
func rowCost(row []byte) int {
	sum := 0
	for _, b := range row {
		sum += abs8(b)
	}
	return sum
}

// chooseFilter fills one of buf1/buf2 (each sized 1+len(src)) with the
// cheapest of the five predictors under PredictorMixed's cost function,
// and returns that buffer and the predictor id it used. Ties keep the
// lowest predictor id, since predictors are tried in id order and only a
// strictly smaller cost replaces the champion.
func chooseFilter(buf1, buf2, src, top []byte, bpp int) ([]byte, int) {
	champion := buf1
	bestID := filterRow(champion, src, top, bpp, PredictorNone)
	bestCost := rowCost(champion[:1+len(src)])

	contender := buf2
	for id := PredictorSub; id <= PredictorPaeth; id++ {
		filterRow(contender, src, top, bpp, id)
		c := rowCost(contender[:1+len(src)])
		if c < bestCost {
			bestCost = c
			bestID = int(id)
			champion, contender = contender, champion
		}
	}
	return champion, bestID
}
