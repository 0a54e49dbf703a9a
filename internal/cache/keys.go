package cache

import "fmt"

const assessmentListPrefix = "marks:assessments:year:"

// AssessmentListKey is the cache key for the assessment list of one academic year.
func AssessmentListKey(academicYear string) string {
	return fmt.Sprintf("%s%s", assessmentListPrefix, academicYear)
}

// AssessmentListPattern matches every cached assessment list.
func AssessmentListPattern() string {
	return assessmentListPrefix + "*"
}

// AssessmentGradeListKey is the cache key for one academic year narrowed to a class grade.
func AssessmentGradeListKey(academicYear string, classGrade int) string {
	return fmt.Sprintf("%s%s:grade:%d", assessmentListPrefix, academicYear, classGrade)
}
