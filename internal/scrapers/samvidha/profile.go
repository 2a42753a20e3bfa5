package samvidha

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"smartx-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	emailDomain       = "iare.ac.in"
	profilePicBaseUrl = "https://iare-data.s3.ap-south-1.amazonaws.com/uploads/STUDENTS"
)

var branchAcronyms = []struct {
	name    string
	acronym string
}{
	{"COMPUTER SCIENCE AND ENGINEERING", "CSE"},
	{"ELECTRONICS AND COMMUNICATION ENGINEERING", "ECE"},
	{"INFORMATION TECHNOLOGY", "IT"},
	{"MECHANICAL ENGINEERING", "MECH"},
	{"CIVIL ENGINEERING", "CIVIL"},
	{"AERONAUTICAL ENGINEERING", "AERO"},
	{"COMPUTER SCIENCE AND INFORMATION TECHNOLOGY", "CSIT"},
	{"COMPUTER SCIENCE AND ENGINEERING (ARTIFICIAL INTELLIGENCE AND MACHINE LEARNING)", "CSE (AI & ML)"},
	{"COMPUTER SCIENCE AND ENGINEERING (DATA SCIENCE)", "CSE (DS)"},
	{"COMPUTER SCIENCE AND ENGINEERING (CYBER SECURITY)", "CSE (CS)"},
}

// BranchAcronym returns the acronym of the longest known branch name contained in
// branch, if there is none it returns the initials of the capitalized words.
func BranchAcronym(branch string) string {
	if branch == Sentinel {
		return Sentinel
	}

	upper := strings.ToUpper(branch)
	best := -1
	for i, entry := range branchAcronyms {
		if !strings.Contains(upper, entry.name) {
			continue
		}
		if best < 0 || len(entry.name) > len(branchAcronyms[best].name) {
			best = i
		}
	}
	if best >= 0 {
		return branchAcronyms[best].acronym
	}

	replacer := strings.NewReplacer("(", "", ")", "")
	var initials strings.Builder
	for _, word := range strings.Fields(replacer.Replace(branch)) {
		first := []rune(word)[0]
		if unicode.IsUpper(first) {
			initials.WriteRune(first)
		}
	}
	return initials.String()
}

func findProfileDetail(doc *goquery.Document, label string) string {
	value := Sentinel
	doc.Find("dt.col-sm-4").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if htmlutil.StrippedText(dt) != label {
			return true
		}
		dd := dt.NextAllFiltered("dd.col-sm-8").First()
		if dd.Length() > 0 {
			value = htmlutil.StrippedText(dd)
		}
		return false
	})
	return value
}

func formatYearSem(raw string) string {
	if raw == Sentinel || !strings.Contains(raw, "B.Tech") {
		return Sentinel
	}
	parts := strings.Fields(strings.ReplaceAll(raw, "B.Tech", ""))
	if len(parts) < 2 {
		return raw
	}
	return fmt.Sprintf("%s/%s", parts[0], parts[1])
}

func formatBatch(dateOfJoining string) string {
	segments := strings.Split(dateOfJoining, "-")
	year, err := strconv.Atoi(strings.TrimSpace(segments[len(segments)-1]))
	if err != nil {
		return Sentinel
	}
	return fmt.Sprintf("%d-%d", year, year+4)
}

func formatGender(raw string) string {
	switch raw {
	case "M":
		return "Male"
	case "F":
		return "Female"
	default:
		return Sentinel
	}
}

// ParseProfile parses the profile page (ProfilePath).
func ParseProfile(doc *goquery.Document) (Profile, error) {
	rollNo := findProfileDetail(doc, "Roll Number")
	if rollNo == Sentinel {
		return Profile{}, parseErrorf("Could not find Roll Number on profile page.")
	}

	branch := findProfileDetail(doc, "Branch")
	branch = strings.TrimSpace(strings.SplitN(branch, "(", 2)[0])

	return Profile{
		FullName:      strings.ToUpper(findProfileDetail(doc, "Name")),
		RollNo:        rollNo,
		BranchAcronym: BranchAcronym(branch),
		YearSem:       formatYearSem(findProfileDetail(doc, "Year/Sem")),
		Section:       findProfileDetail(doc, "Section"),
		Gender:        formatGender(findProfileDetail(doc, "Gender")),
		Email:         fmt.Sprintf("%s@%s", strings.ToLower(rollNo), emailDomain),
		Batch:         formatBatch(findProfileDetail(doc, "Date of Joining")),
		ProfilePicUrl: fmt.Sprintf("%s/%s/%s.jpg", profilePicBaseUrl, rollNo, rollNo),
	}, nil
}
