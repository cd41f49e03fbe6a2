package service

import (
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
)

// ProgressService is the read side of the progress counters. It never
// writes; only SessionService.Finish mutates the counters.
type ProgressService struct {
	Progress *repository.ProgressRepository
}

func NewProgressService(progress *repository.ProgressRepository) *ProgressService {
	return &ProgressService{Progress: progress}
}

type OverallProgressResp struct {
	TotalSolved int `json:"totalSolved"`
	CorrectSum  int `json:"correctSum"`
	WrongSum    int `json:"wrongSum"`
	SuccessRate int `json:"successRate"`
}

type ModuleProgressResp struct {
	ModuleID     uint   `json:"moduleId"`
	ModuleName   string `json:"moduleName"`
	CorrectCount int    `json:"correctCount"`
	WrongCount   int    `json:"wrongCount"`
	SuccessRate  int    `json:"successRate"`
}

type MyProgressResp struct {
	Overall OverallProgressResp  `json:"overall"`
	Modules []ModuleProgressResp `json:"modules"`
}

// MyProgress reads straight from the committed counters, so it is always
// consistent with the latest finished session.
func (s *ProgressService) MyProgress(userID uint) (*MyProgressResp, error) {
	overall, err := s.Progress.Overall(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Progress.ByModule(userID)
	if err != nil {
		return nil, err
	}

	resp := &MyProgressResp{
		Overall: OverallProgressResp{
			TotalSolved: overall.TotalSolved,
			CorrectSum:  overall.CorrectSum,
			WrongSum:    overall.WrongSum,
			SuccessRate: model.SuccessRate(overall.CorrectSum, overall.WrongSum),
		},
		Modules: make([]ModuleProgressResp, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Modules = append(resp.Modules, ModuleProgressResp{
			ModuleID:     row.ModuleID,
			ModuleName:   row.ModuleName,
			CorrectCount: row.CorrectCount,
			WrongCount:   row.WrongCount,
			SuccessRate:  model.SuccessRate(row.CorrectCount, row.WrongCount),
		})
	}
	return resp, nil
}
