package service

import (
	"context"
	"errors"
	"testing"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/model"
)

func newRuleEnv() (*testEnv, ApprovalRuleService) {
	env := newTestEnv()
	svc := NewApprovalRuleService(env.repo, testLogger())
	return env, svc
}

func TestRuleUpsert_CreateThenOverwrite(t *testing.T) {
	env, svc := newRuleEnv()

	first, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:  string(model.RuleSequential),
		Approvers: []string{"u1", "u2"},
	})
	if err != nil {
		t.Fatalf("首次 Upsert 失败: %v", err)
	}

	second, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:            string(model.RulePercentage),
		Approvers:           []string{"u1", "u2", "u3"},
		ThresholdPercentage: intPtr(60),
	})
	if err != nil {
		t.Fatalf("覆盖 Upsert 失败: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("同公司规则应为同一条记录，first=%s second=%s", first.ID, second.ID)
	}
	if len(env.rules.rules) != 1 {
		t.Errorf("每公司至多一条规则，实际=%d", len(env.rules.rules))
	}
	if second.RuleType != string(model.RulePercentage) {
		t.Errorf("期望覆盖为 Percentage，实际=%s", second.RuleType)
	}
}

func TestRuleUpsert_PercentageRequiresThreshold(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:  string(model.RulePercentage),
		Approvers: []string{"u1"},
	})
	if !errors.Is(err, ErrThresholdRequired) {
		t.Errorf("期望 ErrThresholdRequired，实际=%v", err)
	}

	_, err = svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:            string(model.RulePercentage),
		Approvers:           []string{"u1"},
		ThresholdPercentage: intPtr(101),
	})
	if !errors.Is(err, ErrThresholdRequired) {
		t.Errorf("阈值超出 1-100 期望 ErrThresholdRequired，实际=%v", err)
	}
}

func TestRuleUpsert_SpecificApproverRequiresID(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:  string(model.RuleSpecificApprover),
		Approvers: []string{"u1"},
	})
	if !errors.Is(err, ErrSpecificIDRequired) {
		t.Errorf("期望 ErrSpecificIDRequired，实际=%v", err)
	}
}

func TestRuleUpsert_HybridRequiresBoth(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:            string(model.RuleHybrid),
		Approvers:           []string{"u1"},
		ThresholdPercentage: intPtr(50),
	})
	if !errors.Is(err, ErrSpecificIDRequired) {
		t.Errorf("Hybrid 缺指定审批人期望 ErrSpecificIDRequired，实际=%v", err)
	}

	_, err = svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:           string(model.RuleHybrid),
		Approvers:          []string{"u1"},
		SpecificApproverID: strPtr("u1"),
	})
	if !errors.Is(err, ErrThresholdRequired) {
		t.Errorf("Hybrid 缺阈值期望 ErrThresholdRequired，实际=%v", err)
	}
}

func TestRuleUpsert_InvalidType(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType: "Majority",
	})
	if !errors.Is(err, ErrInvalidRuleType) {
		t.Errorf("期望 ErrInvalidRuleType，实际=%v", err)
	}
}

func TestRuleUpsert_DuplicateApprovers(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.Upsert(context.Background(), "c1", &dto.UpsertApprovalRuleRequest{
		RuleType:  string(model.RuleSequential),
		Approvers: []string{"u1", "u2", "u1"},
	})
	if !errors.Is(err, ErrDuplicateApprovers) {
		t.Errorf("期望 ErrDuplicateApprovers，实际=%v", err)
	}
}

func TestRuleGetByCompany_NotConfigured(t *testing.T) {
	_, svc := newRuleEnv()

	_, err := svc.GetByCompany(context.Background(), "c1")
	if !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("期望 ErrRuleNotFound，实际=%v", err)
	}
}
