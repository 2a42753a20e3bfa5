package commands

import (
	"context"
	"fmt"

	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/student"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		dataCommand("profile", "Prints the profile of the student.", student.Service.Profile, printProfile),
		dataCommand("attendance", "Prints the course attendance summary.", student.Service.Attendance, printAttendance),
		dataCommand("timetable", "Prints the weekly timetable and today's schedule.", student.Service.Timetable, printTimetable),
		dataCommand("results", "Prints the SGPA of every semester and the CGPA.", student.Service.Results, printResults),
		dataCommand("register", "Prints the day by day attendance register.", student.Service.AttendanceRegister, printRegister),
		dataCommand("academic", "Prints the academic summary.", student.Service.AcademicInfo, printAcademic),
		dataCommand("dashboard", "Prints today's schedule, the biometric summary and upcoming lab deadlines.", student.Service.Dashboard, printDashboard),
		bioCmd,
		labsCmd,
	)
	labCode = labsCmd.Flags().String("code", "", "Only print the lab course with this subject code.")
}

type loader[T any] func(s student.Service, ctx context.Context, userId string) (T, error)

func render[T any](data T, table func(T)) error {
	if *asTable {
		table(data)
		return nil
	}
	return printJson(data)
}

// dataCommand creates a command that logs in, loads a single kind of data and prints it.
func dataCommand[T any](use, short string, load loader[T], table func(T)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			data, err := load(sess.service, cmd.Context(), sess.userId())
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", use, err)
			}
			return render(data, table)
		},
	}
}

type bioOutput struct {
	samvidha.BioLog
	Summary samvidha.BioSummary `json:"summary"`
}

var bioCmd = &cobra.Command{
	Use:   "bio",
	Short: "Prints the biometric attendance log and its summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := login(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		log, err := sess.service.BioLog(cmd.Context(), sess.userId())
		if err != nil {
			return fmt.Errorf("failed to load biometric log: %w", err)
		}
		out := bioOutput{BioLog: log, Summary: samvidha.SummarizeBio(log)}
		return render(out, func(o bioOutput) { printBio(o.BioLog, o.Summary) })
	},
}

var labCode *string

var labsCmd = &cobra.Command{
	Use:   "labs [--code <subject code>]",
	Short: "Prints the lab courses and their weekly deadlines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := login(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		if *labCode != "" {
			course, err := sess.service.LabDetails(cmd.Context(), sess.userId(), *labCode)
			if err != nil {
				return fmt.Errorf("failed to load lab course: %w", err)
			}
			return render(course, func(c samvidha.LabCourse) {
				printLabs(samvidha.LabRecord{Courses: []samvidha.LabCourse{c}})
			})
		}

		if !*asTable {
			courses, err := sess.service.LabCourses(cmd.Context(), sess.userId())
			if err != nil {
				return fmt.Errorf("failed to load lab courses: %w", err)
			}
			return printJson(courses)
		}
		record, err := sess.service.LabDeadlines(cmd.Context(), sess.userId())
		if err != nil {
			return fmt.Errorf("failed to load lab record: %w", err)
		}
		printLabs(record)
		return nil
	},
}
