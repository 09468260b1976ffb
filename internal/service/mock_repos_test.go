package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"expensio/backend/internal/model"
	"expensio/backend/internal/repository"
	apperrors "expensio/backend/pkg/errors"
)

// 内存版 Repository 实现，供 service 层单测使用。
// 行为对齐 GORM 实现：未命中返回 gorm.ErrRecordNotFound，
// 条件更新未命中为 no-op。

// ── 公司 ──

type mockCompanyRepo struct {
	companies map[string]*model.Company
	seq       int
	failOn    string // 命中该方法名时返回注入错误
}

var errInjected = errors.New("injected storage error")

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[string]*model.Company)}
}

func (m *mockCompanyRepo) Create(_ context.Context, company *model.Company) error {
	if m.failOn == "Create" {
		return errInjected
	}
	if company.CompanyID == "" {
		m.seq++
		company.CompanyID = fmt.Sprintf("company-%d", m.seq)
	}
	cp := *company
	m.companies[company.CompanyID] = &cp
	return nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (*model.Company, error) {
	if m.failOn == "GetByID" {
		return nil, errInjected
	}
	company, ok := m.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *company
	return &cp, nil
}

// ── 用户 ──

type mockUserRepo struct {
	users  map[string]*model.User
	seq    int
	failOn string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.failOn == "Create" {
		return errInjected
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.failOn == "GetByID" {
		return nil, errInjected
	}
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.failOn == "GetByEmail" {
		return nil, errInjected
	}
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if m.failOn == "Update" {
		return errInjected
	}
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) ListByCompany(_ context.Context, companyID string, offset, limit int) ([]model.User, int64, error) {
	if m.failOn == "ListByCompany" {
		return nil, 0, errInjected
	}
	var all []model.User
	for _, user := range m.users {
		if user.CompanyID == companyID {
			all = append(all, *user)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListByCompanyAndRole(_ context.Context, companyID, role string) ([]model.User, error) {
	if m.failOn == "ListByCompanyAndRole" {
		return nil, errInjected
	}
	var result []model.User
	for _, user := range m.users {
		if user.CompanyID == companyID && user.Role == role {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── 报销单 ──

type mockExpenseRepo struct {
	expenses map[string]*model.Expense
	users    *mockUserRepo
	seq      int
	failOn   string
}

func newMockExpenseRepo(users *mockUserRepo) *mockExpenseRepo {
	return &mockExpenseRepo{expenses: make(map[string]*model.Expense), users: users}
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	if m.failOn == "Create" {
		return errInjected
	}
	if expense.ExpenseID == "" {
		m.seq++
		expense.ExpenseID = fmt.Sprintf("expense-%d", m.seq)
	}
	cp := *expense
	m.expenses[expense.ExpenseID] = &cp
	return nil
}

func (m *mockExpenseRepo) GetByID(_ context.Context, id string) (*model.Expense, error) {
	if m.failOn == "GetByID" {
		return nil, errInjected
	}
	expense, ok := m.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *expense
	if employee, ok := m.users.users[cp.EmployeeID]; ok {
		ecp := *employee
		cp.Employee = &ecp
	}
	return &cp, nil
}

func (m *mockExpenseRepo) ListByEmployee(_ context.Context, employeeID string) ([]model.Expense, error) {
	if m.failOn == "ListByEmployee" {
		return nil, errInjected
	}
	var result []model.Expense
	for _, expense := range m.expenses {
		if expense.EmployeeID == employeeID {
			result = append(result, *expense)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpenseID < result[j].ExpenseID })
	return result, nil
}

func (m *mockExpenseRepo) ListByCompany(_ context.Context, companyID string) ([]model.Expense, error) {
	if m.failOn == "ListByCompany" {
		return nil, errInjected
	}
	var result []model.Expense
	for _, expense := range m.expenses {
		if expense.CompanyID == companyID {
			result = append(result, *expense)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpenseID < result[j].ExpenseID })
	return result, nil
}

func (m *mockExpenseRepo) ListTeam(_ context.Context, managerID string) ([]model.Expense, error) {
	if m.failOn == "ListTeam" {
		return nil, errInjected
	}
	var result []model.Expense
	for _, expense := range m.expenses {
		employee, ok := m.users.users[expense.EmployeeID]
		if ok && employee.ManagerID != nil && *employee.ManagerID == managerID {
			result = append(result, *expense)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpenseID < result[j].ExpenseID })
	return result, nil
}

func (m *mockExpenseRepo) UpdateStatusIfPending(_ context.Context, expenseID string, status model.Status) (bool, error) {
	if m.failOn == "UpdateStatusIfPending" {
		return false, errInjected
	}
	expense, ok := m.expenses[expenseID]
	if !ok || expense.Status != model.StatusPending {
		return false, nil
	}
	expense.Status = status
	return true, nil
}

func (m *mockExpenseRepo) UpdateStatus(_ context.Context, expenseID string, status model.Status) error {
	if m.failOn == "UpdateStatus" {
		return errInjected
	}
	expense, ok := m.expenses[expenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	expense.Status = status
	return nil
}

// ── 审批记录 ──

type mockApprovalRecordRepo struct {
	records  []*model.ApprovalRecord
	users    *mockUserRepo
	expenses *mockExpenseRepo
	seq      int
	failOn   string
}

func newMockApprovalRecordRepo(users *mockUserRepo, expenses *mockExpenseRepo) *mockApprovalRecordRepo {
	return &mockApprovalRecordRepo{users: users, expenses: expenses}
}

func (m *mockApprovalRecordRepo) BatchCreate(_ context.Context, records []model.ApprovalRecord) error {
	if m.failOn == "BatchCreate" {
		return errInjected
	}
	for i := range records {
		m.seq++
		records[i].ApprovalID = fmt.Sprintf("approval-%d", m.seq)
		if records[i].Status == "" {
			records[i].Status = model.StatusPending
		}
		cp := records[i]
		m.records = append(m.records, &cp)
	}
	return nil
}

func (m *mockApprovalRecordRepo) GetByID(_ context.Context, id string) (*model.ApprovalRecord, error) {
	if m.failOn == "GetByID" {
		return nil, errInjected
	}
	for _, record := range m.records {
		if record.ApprovalID == id {
			cp := *record
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApprovalRecordRepo) ListByExpense(_ context.Context, expenseID string) ([]model.ApprovalRecord, error) {
	if m.failOn == "ListByExpense" {
		return nil, errInjected
	}
	var result []model.ApprovalRecord
	for _, record := range m.records {
		if record.ExpenseID == expenseID {
			cp := *record
			if approver, ok := m.users.users[cp.ApproverID]; ok {
				acp := *approver
				cp.Approver = &acp
			}
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceOrder < result[j].SequenceOrder })
	return result, nil
}

func (m *mockApprovalRecordRepo) ListPendingByApprover(_ context.Context, approverID string) ([]model.ApprovalRecord, error) {
	if m.failOn == "ListPendingByApprover" {
		return nil, errInjected
	}
	var result []model.ApprovalRecord
	for _, record := range m.records {
		if record.ApproverID != approverID || record.Status != model.StatusPending {
			continue
		}
		cp := *record
		if expense, ok := m.expenses.expenses[cp.ExpenseID]; ok {
			ecp := *expense
			if employee, ok := m.users.users[ecp.EmployeeID]; ok {
				ucp := *employee
				ecp.Employee = &ucp
			}
			cp.Expense = &ecp
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceOrder < result[j].SequenceOrder })
	return result, nil
}

func (m *mockApprovalRecordRepo) CountEarlierPending(_ context.Context, expenseID string, sequenceOrder int) (int64, error) {
	if m.failOn == "CountEarlierPending" {
		return 0, errInjected
	}
	var count int64
	for _, record := range m.records {
		if record.ExpenseID == expenseID &&
			record.SequenceOrder > model.NotificationSequence &&
			record.SequenceOrder < sequenceOrder &&
			record.Status == model.StatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockApprovalRecordRepo) UpdateDecision(_ context.Context, id string, status model.Status, comments string, decidedAt time.Time) error {
	if m.failOn == "UpdateDecision" {
		return errInjected
	}
	for _, record := range m.records {
		if record.ApprovalID == id && record.Status == model.StatusPending {
			record.Status = status
			record.Comments = comments
			record.ApprovedAt = &decidedAt
			return nil
		}
	}
	return apperrors.ErrStatusConflict
}

func (m *mockApprovalRecordRepo) ForceApproveManagerPending(_ context.Context, expenseID string) error {
	if m.failOn == "ForceApproveManagerPending" {
		return errInjected
	}
	for _, record := range m.records {
		if record.ExpenseID != expenseID || record.Status != model.StatusPending {
			continue
		}
		approver, ok := m.users.users[record.ApproverID]
		if ok && approver.Role == model.RoleManager {
			record.Status = model.StatusApproved
		}
	}
	return nil
}

// ── 审批规则 ──

type mockApprovalRuleRepo struct {
	rules  map[string]*model.ApprovalRule
	seq    int
	failOn string
}

func newMockApprovalRuleRepo() *mockApprovalRuleRepo {
	return &mockApprovalRuleRepo{rules: make(map[string]*model.ApprovalRule)}
}

func (m *mockApprovalRuleRepo) GetByCompany(_ context.Context, companyID string) (*model.ApprovalRule, error) {
	if m.failOn == "GetByCompany" {
		return nil, errInjected
	}
	rule, ok := m.rules[companyID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rule
	return &cp, nil
}

func (m *mockApprovalRuleRepo) Upsert(_ context.Context, rule *model.ApprovalRule) error {
	if m.failOn == "Upsert" {
		return errInjected
	}
	if existing, ok := m.rules[rule.CompanyID]; ok {
		rule.RuleID = existing.RuleID
	} else {
		m.seq++
		rule.RuleID = fmt.Sprintf("rule-%d", m.seq)
	}
	cp := *rule
	m.rules[rule.CompanyID] = &cp
	return nil
}

// ── 汇率转换器 ──

// mockConverter 固定汇率表，key 为 "FROM->TO"
type mockConverter struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func newMockConverter() *mockConverter {
	return &mockConverter{rates: make(map[string]decimal.Decimal)}
}

func (m *mockConverter) setRate(from, to string, rate string) {
	m.rates[from+"->"+to] = decimal.RequireFromString(rate)
}

func (m *mockConverter) Convert(_ context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	m.calls++
	if m.err != nil {
		return decimal.Zero, m.err
	}
	if from == to {
		return amount, nil
	}
	rate, ok := m.rates[from+"->"+to]
	if !ok {
		return decimal.Zero, errors.New("rate not found")
	}
	return amount.Mul(rate).Round(2), nil
}

// ── 测试环境装配 ──

type testEnv struct {
	repo      *repository.Repository
	companies *mockCompanyRepo
	users     *mockUserRepo
	expenses  *mockExpenseRepo
	records   *mockApprovalRecordRepo
	rules     *mockApprovalRuleRepo
	converter *mockConverter
}

func newTestEnv() *testEnv {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	expenses := newMockExpenseRepo(users)
	records := newMockApprovalRecordRepo(users, expenses)
	rules := newMockApprovalRuleRepo()

	return &testEnv{
		repo: &repository.Repository{
			Company:        companies,
			User:           users,
			Expense:        expenses,
			ApprovalRecord: records,
			ApprovalRule:   rules,
		},
		companies: companies,
		users:     users,
		expenses:  expenses,
		records:   records,
		rules:     rules,
		converter: newMockConverter(),
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }

// ── 常用造数辅助 ──

func (e *testEnv) addCompany(id, currency string) *model.Company {
	company := &model.Company{CompanyID: id, Name: "公司-" + id, Currency: currency}
	e.companies.companies[id] = company
	return company
}

func (e *testEnv) addUser(id, companyID, role string, managerID *string) *model.User {
	user := &model.User{
		UserID:    id,
		Email:     id + "@example.com",
		Role:      role,
		CompanyID: companyID,
		ManagerID: managerID,
	}
	e.users.users[id] = user
	return user
}

func (e *testEnv) addExpense(id, employeeID, companyID string, status model.Status) *model.Expense {
	expense := &model.Expense{
		ExpenseID:        id,
		EmployeeID:       employeeID,
		CompanyID:        companyID,
		Amount:           decimal.NewFromInt(100),
		OriginalAmount:   decimal.NewFromInt(100),
		OriginalCurrency: "USD",
		Description:      "测试报销",
		ExpenseDate:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Status:           status,
	}
	e.expenses.expenses[id] = expense
	return expense
}

func (e *testEnv) addRecord(id, expenseID, approverID string, seq int, status model.Status) *model.ApprovalRecord {
	record := &model.ApprovalRecord{
		ApprovalID:    id,
		ExpenseID:     expenseID,
		ApproverID:    approverID,
		SequenceOrder: seq,
		Status:        status,
	}
	e.records.records = append(e.records.records, record)
	return record
}

func (e *testEnv) setRule(companyID string, ruleType model.RuleType, opts func(*model.ApprovalRule)) *model.ApprovalRule {
	rule := &model.ApprovalRule{
		RuleID:    "rule-" + companyID,
		CompanyID: companyID,
		RuleType:  ruleType,
	}
	if opts != nil {
		opts(rule)
	}
	e.rules.rules[companyID] = rule
	return rule
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
