package samvidha

// Sentinel is the placeholder used for any field the portal did not provide.
const Sentinel = "N/A"

type Profile struct {
	FullName      string `json:"full_name"`
	RollNo        string `json:"roll_no"`
	BranchAcronym string `json:"branch"`
	YearSem       string `json:"year_sem"`
	Section       string `json:"section"`
	Gender        string `json:"gender"`
	Email         string `json:"email"`
	Batch         string `json:"batch"`
	ProfilePicUrl string `json:"profile_pic_url"`
}

type Course struct {
	Name       string  `json:"name"`
	Conducted  int     `json:"conducted"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
	ColorCode  string  `json:"color_code"`
}

type AttendanceSummary struct {
	Courses           []Course `json:"courses"`
	OverallPercentage float64  `json:"overall_percentage"`
	LastSemDate       string   `json:"last_sem_date"`
}

type Period struct {
	Label        string `json:"period"`
	SubjectFull  string `json:"subject_full"`
	SubjectShort string `json:"subject_short"`
	Room         string `json:"room"`
}

type Timetable struct {
	// Days maps a day name (ex. "Monday") to its periods in column order.
	Days          map[string][]Period `json:"timetable"`
	TodaySchedule []Period            `json:"today_schedule"`
}

type BioEntry struct {
	SNo    string `json:"s_no"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

type BioLog struct {
	Entries []BioEntry `json:"bio_log"`
}

type BioSummary struct {
	PresentDays int     `json:"present_days"`
	TotalDays   int     `json:"total_days"`
	Percentage  float64 `json:"percentage"`
}

type LabDeadline struct {
	Week       string `json:"week"`
	Title      string `json:"title"`
	DueDateStr string `json:"due_date_str"`
	Submitted  bool   `json:"submitted"`
}

type LabCourse struct {
	Code        string        `json:"code"`
	SubjectName string        `json:"subject_name"`
	Deadlines   []LabDeadline `json:"deadlines"`
}

// LabRecord holds every lab course in the order the portal lists them.
type LabRecord struct {
	Courses []LabCourse `json:"courses"`
}

// Course returns the lab course with the given subject code.
func (r LabRecord) Course(code string) (LabCourse, bool) {
	for _, c := range r.Courses {
		if c.Code == code {
			return c, true
		}
	}
	return LabCourse{}, false
}

type SemesterResult struct {
	Semester string `json:"semester"`
	Sgpa     string `json:"sgpa"`
}

type ResultsSummary struct {
	Semesters []SemesterResult `json:"semesters"`
	Cgpa      string           `json:"cgpa"`
}

type AttendanceRegister struct {
	Subjects []string `json:"subjects"`
	// Dates are formatted as YYYY-MM-DD, latest first.
	Dates []string `json:"dates"`
	// Register maps a subject to one status per entry in Dates.
	Register map[string][]string `json:"register"`
}
