package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var ErrInconsistentTree = errors.New("bracket tree is inconsistent")

type nodeKey struct {
	round    int
	position int
}

// BuildTree projects match rows into the display tree. It returns the root nodes: the final of
// each bracket side for elimination brackets, every match for round robin.
func BuildTree(matches []models.Match) []*models.BracketNode {
	byKey := make(map[nodeKey]*models.BracketNode, len(matches))
	ordered := make([]*models.BracketNode, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		id := m.ID
		node := &models.BracketNode{
			Round:          m.Round,
			Position:       m.Position,
			Participant1ID: m.Participant1ID,
			Participant2ID: m.Participant2ID,
			WinnerID:       m.WinnerID,
			MatchID:        &id,
			Status:         m.Status,
		}
		byKey[nodeKey{m.Round, m.Position}] = node
		ordered = append(ordered, node)
	}
	sortNodes(ordered)

	roots := make([]*models.BracketNode, 0)
	for _, node := range ordered {
		for _, pos := range []int{2*node.Position - 1, 2 * node.Position} {
			if child, ok := byKey[nodeKey{node.Round - 1, pos}]; ok && isFeeder(node.Round) {
				node.Children = append(node.Children, child)
			}
		}
		if _, hasParent := byKey[nodeKey{node.Round + 1, (node.Position + 1) / 2}]; !hasParent || !isFeeder(node.Round+1) {
			roots = append(roots, node)
		}
	}
	return roots
}

// isFeeder reports whether round is fed by round-1 on the same side of the bracket.
func isFeeder(round int) bool {
	return round > 1 && round != models.LowerBracketRoundOffset+1
}

// VerifyTree checks that every node whose children both have winners carries those winners.
func VerifyTree(roots []*models.BracketNode) error {
	var walk func(n *models.BracketNode) error
	walk = func(n *models.BracketNode) error {
		if len(n.Children) == 2 && n.Children[0].WinnerID != nil && n.Children[1].WinnerID != nil {
			if !sameID(n.Participant1ID, n.Children[0].WinnerID) || !sameID(n.Participant2ID, n.Children[1].WinnerID) {
				return fmt.Errorf("%w: round %d position %d does not carry its children's winners",
					ErrInconsistentTree, n.Round, n.Position)
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := walk(root); err != nil {
			return err
		}
	}
	return nil
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
