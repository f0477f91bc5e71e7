package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/types"
)

func TestCreatePersonalBoard(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)

	def := f.eng.GetDefaultBoard(f.ctx, f.member.ID, f.project.ID)
	wantKind(t, def, result.KindOK)

	res := f.eng.CreatePersonalBoard(f.ctx, f.member.ID, f.project.ID, "My Board")
	wantKind(t, res, result.KindCreated)
	if res.Data.Board.OwnerID != f.member.ID || res.Data.Board.IsDefault {
		t.Errorf("unexpected board: %+v", res.Data.Board)
	}

	// The fork copies the default layout with fresh column identities.
	require.Len(t, res.Data.Columns, len(def.Data.Columns))
	for i, col := range res.Data.Columns {
		if col.StatusID != def.Data.Columns[i].StatusID {
			t.Errorf("column %d status = %s, want %s", i, col.StatusID, def.Data.Columns[i].StatusID)
		}
		if col.ID == def.Data.Columns[i].ID {
			t.Errorf("column %d shares its id with the default board", i)
		}
		if col.BoardID != res.Data.Board.ID {
			t.Errorf("column %d belongs to board %s", i, col.BoardID)
		}
	}

	wantKind(t, f.eng.CreatePersonalBoard(f.ctx, f.member.ID, f.project.ID, "  "), result.KindBadRequest)

	// Boards need project membership.
	wantKind(t, f.eng.CreatePersonalBoard(f.ctx, f.qa.ID, f.project.ID, "Outside"), result.KindForbidden)
}

func TestSetBoardColumns(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)
	f.addMember(f.qa.ID, types.ProjectMember)

	board := f.eng.CreatePersonalBoard(f.ctx, f.member.ID, f.project.ID, "My Board")
	wantKind(t, board, result.KindCreated)
	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)

	// The owner narrows their board to two columns.
	layout := []string{statuses.Data[0].ID, statuses.Data[3].ID}
	res := f.eng.SetBoardColumns(f.ctx, f.member.ID, board.Data.Board.ID, layout)
	wantKind(t, res, result.KindOK)
	require.Len(t, res.Data.Columns, 2)
	for i, col := range res.Data.Columns {
		if col.StatusID != layout[i] || col.Order != i+1 {
			t.Errorf("column %d = %+v", i, col)
		}
	}

	// Nobody else touches a personal board below manage rights.
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.qa.ID, board.Data.Board.ID, layout), result.KindForbidden)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.manager.ID, board.Data.Board.ID, layout), result.KindOK)

	// Layout validation.
	dup := []string{statuses.Data[0].ID, statuses.Data[0].ID}
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.member.ID, board.Data.Board.ID, dup), result.KindBadRequest)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.member.ID, board.Data.Board.ID, nil), result.KindBadRequest)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.member.ID, board.Data.Board.ID, []string{"ghost"}), result.KindBadRequest)

	other := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "GM"})
	wantKind(t, other, result.KindCreated)
	foreign := f.eng.ListStatuses(f.ctx, f.admin.ID, other.Data.ID)
	wantKind(t, foreign, result.KindOK)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.member.ID, board.Data.Board.ID, []string{foreign.Data[0].ID}), result.KindBadRequest)

	// The default board is project administration.
	def := f.eng.GetDefaultBoard(f.ctx, f.member.ID, f.project.ID)
	wantKind(t, def, result.KindOK)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.member.ID, def.Data.Board.ID, layout), result.KindForbidden)
	wantKind(t, f.eng.SetBoardColumns(f.ctx, f.manager.ID, def.Data.Board.ID, layout), result.KindOK)
}

func TestDeleteBoard(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)
	f.addMember(f.qa.ID, types.ProjectMember)

	def := f.eng.GetDefaultBoard(f.ctx, f.member.ID, f.project.ID)
	wantKind(t, def, result.KindOK)
	wantKind(t, f.eng.DeleteBoard(f.ctx, f.admin.ID, def.Data.Board.ID), result.KindBadRequest)

	board := f.eng.CreatePersonalBoard(f.ctx, f.member.ID, f.project.ID, "My Board")
	wantKind(t, board, result.KindCreated)

	wantKind(t, f.eng.DeleteBoard(f.ctx, f.qa.ID, board.Data.Board.ID), result.KindForbidden)
	wantKind(t, f.eng.DeleteBoard(f.ctx, f.member.ID, board.Data.Board.ID), result.KindOK)
	wantKind(t, f.eng.GetBoard(f.ctx, f.member.ID, board.Data.Board.ID), result.KindNotFound)
	wantKind(t, f.eng.DeleteBoard(f.ctx, f.member.ID, board.Data.Board.ID), result.KindNotFound)
}

func TestListBoards(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)

	board := f.eng.CreatePersonalBoard(f.ctx, f.member.ID, f.project.ID, "My Board")
	wantKind(t, board, result.KindCreated)

	list := f.eng.ListBoards(f.ctx, f.member.ID, f.project.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 2)

	rival := f.rival()
	wantKind(t, f.eng.ListBoards(f.ctx, rival.ID, f.project.ID), result.KindNotFound)
	wantKind(t, f.eng.GetBoard(f.ctx, rival.ID, board.Data.Board.ID), result.KindNotFound)
}
