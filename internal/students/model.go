package students

// Read-only projections of the LMS database. Only the columns the
// assistant renders into context are mapped

// Student is the LMS student profile
type Student struct {
	ID       uint   `gorm:"primaryKey"`
	NIM      string `gorm:"size:32;uniqueIndex"`
	FullName string `gorm:"size:255"`
	Major    string `gorm:"size:128;column:major"`
	Semester int
	Status   string `gorm:"size:32"`
}

// TableName overrides the gorm default
func (Student) TableName() string {
	return "students"
}

// Grade is one course result for a student
type Grade struct {
	ID          uint   `gorm:"primaryKey"`
	StudentID   uint   `gorm:"index"`
	CourseName  string `gorm:"size:255"`
	Semester    int
	Score       float64
	LetterGrade string `gorm:"size:4"`
}

// TableName overrides the gorm default
func (Grade) TableName() string {
	return "grades"
}

// ScheduleEntry is one weekly class slot for a student
type ScheduleEntry struct {
	ID         uint   `gorm:"primaryKey"`
	StudentID  uint   `gorm:"index"`
	CourseName string `gorm:"size:255"`
	DayOfWeek  int    // 0 = Sunday, matching time.Weekday
	StartTime  string `gorm:"size:8"`
	EndTime    string `gorm:"size:8"`
	Room       string `gorm:"size:64"`
}

// TableName overrides the gorm default
func (ScheduleEntry) TableName() string {
	return "schedules"
}
