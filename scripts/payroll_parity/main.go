// Command payroll_parity compares the salary figures computed by this
// service against the legacy payroll API for the same period. Used during
// the migration cutover to prove the reconciliation engine reproduces the
// legacy numbers teacher by teacher.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

type salaryRow struct {
	TeacherID         string      `json:"teacher_id"`
	TeacherName       string      `json:"teacher_name"`
	BaseSalary        json.Number `json:"base_salary"`
	LatenessDeduction json.Number `json:"lateness_deduction"`
	AbsenceDeduction  json.Number `json:"absence_deduction"`
	Bonuses           json.Number `json:"bonuses"`
	TotalSalary       json.Number `json:"total_salary"`
	Status            string      `json:"status"`
}

type envelope struct {
	Data []salaryRow `json:"data"`
}

type fieldDiff struct {
	Field  string
	Go     string
	Legacy string
}

type teacherDiff struct {
	TeacherID   string
	TeacherName string
	MissingIn   string
	Fields      []fieldDiff
}

func main() {
	var (
		goBase     string
		legacyBase string
		period     string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "Legacy payroll API base URL")
	flag.StringVar(&period, "period", "", "Billing period to compare (YYYY-MM)")
	flag.StringVar(&token, "token", os.Getenv("PARITY_TOKEN"), "Bearer token for both APIs")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	if period == "" {
		log.Fatal("period is required, e.g. -period 2026-03")
	}

	client := &http.Client{Timeout: timeout}

	goRows, err := fetchSalaries(client, goBase, period, token)
	if err != nil {
		log.Fatalf("go api: %v", err)
	}
	legacyRows, err := fetchSalaries(client, legacyBase, period, token)
	if err != nil {
		log.Fatalf("legacy api: %v", err)
	}

	diffs := compare(goRows, legacyRows)
	printReport(period, len(goRows), len(legacyRows), diffs)

	if len(diffs) > 0 {
		os.Exit(1)
	}
}

func fetchSalaries(client *http.Client, base, period, token string) ([]salaryRow, error) {
	url := fmt.Sprintf("%s/api/v1/salaries?period=%s&refresh=true", strings.TrimRight(base, "/"), period)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env.Data, nil
}

func compare(goRows, legacyRows []salaryRow) []teacherDiff {
	legacyByID := make(map[string]salaryRow, len(legacyRows))
	for _, row := range legacyRows {
		legacyByID[row.TeacherID] = row
	}
	goByID := make(map[string]salaryRow, len(goRows))

	var diffs []teacherDiff
	for _, row := range goRows {
		goByID[row.TeacherID] = row
		legacy, ok := legacyByID[row.TeacherID]
		if !ok {
			diffs = append(diffs, teacherDiff{TeacherID: row.TeacherID, TeacherName: row.TeacherName, MissingIn: "legacy"})
			continue
		}
		if fields := diffFields(row, legacy); len(fields) > 0 {
			diffs = append(diffs, teacherDiff{TeacherID: row.TeacherID, TeacherName: row.TeacherName, Fields: fields})
		}
	}
	for _, row := range legacyRows {
		if _, ok := goByID[row.TeacherID]; !ok {
			diffs = append(diffs, teacherDiff{TeacherID: row.TeacherID, TeacherName: row.TeacherName, MissingIn: "go"})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].TeacherID < diffs[j].TeacherID })
	return diffs
}

func diffFields(goRow, legacyRow salaryRow) []fieldDiff {
	checks := []struct {
		name          string
		goVal, legacy string
	}{
		{"base_salary", goRow.BaseSalary.String(), legacyRow.BaseSalary.String()},
		{"lateness_deduction", goRow.LatenessDeduction.String(), legacyRow.LatenessDeduction.String()},
		{"absence_deduction", goRow.AbsenceDeduction.String(), legacyRow.AbsenceDeduction.String()},
		{"bonuses", goRow.Bonuses.String(), legacyRow.Bonuses.String()},
		{"total_salary", goRow.TotalSalary.String(), legacyRow.TotalSalary.String()},
		{"status", goRow.Status, legacyRow.Status},
	}

	var fields []fieldDiff
	for _, check := range checks {
		if !figuresEqual(check.goVal, check.legacy) {
			fields = append(fields, fieldDiff{Field: check.name, Go: check.goVal, Legacy: check.legacy})
		}
	}
	return fields
}

// figuresEqual tolerates formatting differences like "2600" vs "2600.00".
func figuresEqual(a, b string) bool {
	if a == b {
		return true
	}
	return trimZeros(a) == trimZeros(b)
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func printReport(period string, goCount, legacyCount int, diffs []teacherDiff) {
	fmt.Printf("Payroll Parity Report (%s)\n", period)
	fmt.Println("===========================")
	fmt.Printf("Teachers: go=%d legacy=%d\n", goCount, legacyCount)

	if len(diffs) == 0 {
		fmt.Println("All figures match.")
		return
	}

	for _, diff := range diffs {
		if diff.MissingIn != "" {
			fmt.Printf("[MISSING] %s (%s) absent from %s response\n", diff.TeacherID, diff.TeacherName, diff.MissingIn)
			continue
		}
		fmt.Printf("[DIFF] %s (%s)\n", diff.TeacherID, diff.TeacherName)
		for _, field := range diff.Fields {
			fmt.Printf("  %s: go=%s legacy=%s\n", field.Field, field.Go, field.Legacy)
		}
	}
}
