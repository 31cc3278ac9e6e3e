package game

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	MinFace      = 1
	MaxFace      = 6
	WildFace     = 1
	NumFaces     = MaxFace - MinFace + 1
	StartingDice = 5
)

// ValidFace reports whether face is a playable die face.
func ValidFace(face int) bool {
	return MinFace <= face && face <= MaxFace
}

// DiceCounts holds how many dice show each face. Index by face through
// Count, not directly, so the MinFace offset stays in one place.
type DiceCounts [NumFaces]int

func RollDice(rng *rand.Rand, numDice int) DiceCounts {
	var dc DiceCounts
	for i := 0; i < numDice; i++ {
		dc[rng.Intn(NumFaces)]++
	}
	return dc
}

func DiceFromFaces(faces ...int) (DiceCounts, error) {
	var dc DiceCounts
	for _, face := range faces {
		if !ValidFace(face) {
			return DiceCounts{}, fmt.Errorf("invalid face %d", face)
		}
		dc[face-MinFace]++
	}
	return dc, nil
}

// DiceFromMap builds counts from a face to count mapping. Mostly here to
// make hand-built test fixtures readable.
func DiceFromMap(counts map[int]int) (DiceCounts, error) {
	var dc DiceCounts
	for face, count := range counts {
		if !ValidFace(face) {
			return DiceCounts{}, fmt.Errorf("invalid face %d", face)
		}
		if count < 0 {
			return DiceCounts{}, fmt.Errorf("negative count %d for face %d", count, face)
		}
		dc[face-MinFace] = count
	}
	return dc, nil
}

func SumDice(all []DiceCounts) DiceCounts {
	var total DiceCounts
	for _, dc := range all {
		for i, n := range dc {
			total[i] += n
		}
	}
	return total
}

// Count returns how many dice show the given face.
func (dc DiceCounts) Count(face int) int {
	return dc[face-MinFace]
}

func (dc DiceCounts) NumDice() int {
	total := 0
	for _, n := range dc {
		total += n
	}
	return total
}

func (dc DiceCounts) String() string {
	var parts []string
	for i, n := range dc {
		if n != 0 {
			parts = append(parts, fmt.Sprintf("%d: %d", i+MinFace, n))
		}
	}
	return strings.Join(parts, ", ")
}
