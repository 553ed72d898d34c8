package audits

import "time"

// Audit is one recorded appliance test run.
type Audit struct {
	AuditID     int64  `gorm:"column:audit_id;primaryKey"`
	Serial      string `gorm:"column:serial;not null;index"`
	Part        string `gorm:"column:part;not null"`
	TubType     string `gorm:"column:tub_type"`
	Description string `gorm:"column:description"`
	CreatedAt   time.Time
}

func (Audit) TableName() string { return "audit" }

// SampleRow is one telemetry row as the rig writes it.
type SampleRow struct {
	AuditID          int64     `gorm:"column:audit_id;not null;index"`
	SampleID         int       `gorm:"column:sample_id"`
	SampleTime       time.Time `gorm:"column:sample_time"`
	Seconds          float64   `gorm:"column:seconds"`
	Voltage          string    `gorm:"column:voltage"`
	Current          string    `gorm:"column:current"`
	Power            string    `gorm:"column:power"`
	PowerUsage       string    `gorm:"column:powerusage"`
	WaterUsage       string    `gorm:"column:waterusage"`
	Temperature      string    `gorm:"column:temperature"`
	WaterPressure    string    `gorm:"column:waterpressure"`
	WaterTemperature string    `gorm:"column:watertemperature"`
}

func (SampleRow) TableName() string { return "cfa_data_excel" }

// Result row kinds.
const (
	KindAuto   = "AUTO"
	KindVisual = "VISUAL"
)

// TestResult is one scored check of a saved run.
type TestResult struct {
	ID          uint     `gorm:"primaryKey"`
	Part        string   `gorm:"column:part;not null;index:idx_test_results_run"`
	Serial      string   `gorm:"column:serial;not null;index:idx_test_results_run"`
	Task        string   `gorm:"column:task;not null;index:idx_test_results_run"`
	RunNo       int      `gorm:"column:run_no;not null;index:idx_test_results_run"`
	Kind        string   `gorm:"column:kind;not null;type:text"`
	Class       string   `gorm:"column:class"`
	Description string   `gorm:"column:description"`
	Value       string   `gorm:"column:value"`
	Lower       *float64 `gorm:"column:lower_limit"`
	Upper       *float64 `gorm:"column:upper_limit"`
	Result      string   `gorm:"column:result;type:text"`
	CreatedAt   time.Time
}

func (TestResult) TableName() string { return "test_results" }

// TaskResult is the overall outcome of one saved run.
type TaskResult struct {
	ID        uint   `gorm:"primaryKey"`
	Part      string `gorm:"column:part;not null"`
	Serial    string `gorm:"column:serial;not null;index:idx_task_results_serial_task"`
	Task      string `gorm:"column:task;not null;index:idx_task_results_serial_task"`
	RunNo     int    `gorm:"column:run_no;not null"`
	Result    string `gorm:"column:result;not null;type:text"`
	CreatedAt time.Time
}

func (TaskResult) TableName() string { return "task_results" }
