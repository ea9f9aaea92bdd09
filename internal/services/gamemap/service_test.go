package gamemap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage/memory"
	"github.com/mcoot/gridrace/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

const loopCSV = "1,1,1\n1,0,1\n1,1,1\n"

// ParseCSV tests

func (s *ServiceSuite) TestParseCSVReadsSquareMatrix() {
	roads, err := ParseCSV(strings.NewReader("1, 0\n 1,1\n"))
	s.Require().NoError(err)
	s.Equal([][]int{{1, 0}, {1, 1}}, roads)
}

func (s *ServiceSuite) TestParseCSVRejectsBadInput() {
	for name, input := range map[string]string{
		"empty":      "",
		"not square": "1,1,1\n1,1,1\n",
		"ragged":     "1,1\n1\n",
		"not number": "1,x\n1,1\n",
	} {
		_, err := ParseCSV(strings.NewReader(input))
		s.ErrorIs(err, model.ErrInvalidMap, name)
	}
}

// RoadsConnected tests

func (s *ServiceSuite) TestRoadsConnected() {
	s.True(RoadsConnected([][]int{{1, 1, 1}, {1, 0, 1}, {1, 1, 1}}))
	s.True(RoadsConnected([][]int{{0, 0}, {0, 0}}))
	s.True(RoadsConnected([][]int{{1}}))
	s.False(RoadsConnected([][]int{{1, 0}, {0, 1}}), "diagonal is not a connection")
	s.False(RoadsConnected([][]int{{1, 1, 0}, {0, 0, 0}, {0, 1, 1}}))
}

// Upload tests

func (s *ServiceSuite) TestUploadStoresActiveMap() {
	m, err := s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	s.Require().NoError(err)
	s.Equal(3, m.Size)
	s.Equal(model.MapStatusActive, m.Status)

	stored, err := s.service.Get(s.ctx, "loop")
	s.Require().NoError(err)
	s.Equal(m.Roads, stored.Roads)
}

func (s *ServiceSuite) TestUploadRejectsDisconnectedRoads() {
	_, err := s.service.Upload(s.ctx, "split", strings.NewReader("1,0\n0,1\n"))
	s.ErrorIs(err, model.ErrRoadsNotConnected)

	_, err = s.service.Get(s.ctx, "split")
	s.ErrorIs(err, model.ErrMapNotFound)
}

func (s *ServiceSuite) TestUploadRejectsDuplicateName() {
	_, err := s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	s.Require().NoError(err)

	_, err = s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	s.ErrorIs(err, model.ErrMapAlreadyExists)
}

func (s *ServiceSuite) TestUploadReplacesDeletedMap() {
	_, _ = s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	s.Require().NoError(s.service.Delete(s.ctx, "loop"))

	m, err := s.service.Upload(s.ctx, "loop", strings.NewReader("1\n"))
	s.Require().NoError(err)
	s.Equal(1, m.Size)
	s.Equal(model.MapStatusActive, m.Status)
}

func (s *ServiceSuite) TestUploadRequiresName() {
	_, err := s.service.Upload(s.ctx, "  ", strings.NewReader(loopCSV))
	s.ErrorIs(err, model.ErrInvalidMap)
}

// Delete tests

func (s *ServiceSuite) TestDeleteMarksMapDeleted() {
	_, _ = s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	s.Require().NoError(s.service.Delete(s.ctx, "loop"))

	m, err := s.service.Get(s.ctx, "loop")
	s.Require().NoError(err)
	s.Equal(model.MapStatusDeleted, m.Status)

	_, err = s.service.GetActive(s.ctx, "loop")
	s.ErrorIs(err, model.ErrMapNotFound)
	s.ErrorIs(s.service.Delete(s.ctx, "loop"), model.ErrMapNotFound)
}

func (s *ServiceSuite) TestDeleteFailsWhileRunningGameUsesMap() {
	_, _ = s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	_ = s.storage.CreateGame(s.ctx, &model.Game{Name: "race", MapName: "loop", Status: model.GameStatusRunning})

	s.ErrorIs(s.service.Delete(s.ctx, "loop"), model.ErrMapInUse)
}

func (s *ServiceSuite) TestDeleteAllowedAfterGameFinished() {
	_, _ = s.service.Upload(s.ctx, "loop", strings.NewReader(loopCSV))
	_ = s.storage.CreateGame(s.ctx, &model.Game{Name: "race", MapName: "loop", Status: model.GameStatusFinished})

	s.NoError(s.service.Delete(s.ctx, "loop"))
}

func (s *ServiceSuite) TestDeleteUnknownMap() {
	s.ErrorIs(s.service.Delete(s.ctx, "nope"), model.ErrMapNotFound)
}
