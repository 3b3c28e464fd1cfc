package grade

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gradetrack/internal/metrics"
	"gradetrack/internal/shared"
)

// Service records assignment grades and keeps the derived grade fields
// consistent with them.
type Service struct {
	db         *mongo.Database
	usersCol   *mongo.Collection
	coursesCol *mongo.Collection
	log        *zap.SugaredLogger
}

// NewService creates a new grade Service instance.
func NewService(db *mongo.Database, log *zap.SugaredLogger) *Service {
	return &Service{
		db:         db,
		usersCol:   db.Collection(shared.ColUsers),
		coursesCol: db.Collection(shared.ColCourses),
		log:        log,
	}
}

// SetAssignmentRequest is the JSON input for POST /grades/set. Grade is a
// pointer so a recorded zero is distinguishable from a missing field.
type SetAssignmentRequest struct {
	Semester     string   `json:"semester"`
	CourseID     string   `json:"courseId"`
	AssignmentID string   `json:"assignmentId"`
	Grade        *float64 `json:"grade"`
	IsFinalGrade *bool    `json:"isFinalGrade,omitempty"`
}

// SetAssignmentGrade records one assignment grade and re-runs the aggregator
// for the user.
func (s *Service) SetAssignmentGrade(ctx context.Context, userID string, req SetAssignmentRequest) error {
	switch {
	case req.Semester == "":
		return status.Error(codes.InvalidArgument, "semester is required")
	case req.CourseID == "":
		return status.Error(codes.InvalidArgument, "course ID is required")
	case req.AssignmentID == "":
		return status.Error(codes.InvalidArgument, "assignment ID is required")
	case req.Grade == nil:
		return status.Error(codes.InvalidArgument, "grade is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return status.Error(codes.NotFound, "user not found")
		}
		return status.Error(codes.Internal, "failed to retrieve user")
	}

	semIdx := u.FindSemester(req.Semester)
	if semIdx == -1 {
		return status.Error(codes.NotFound, "semester not found")
	}

	courseIdx := u.AcademicPath[semIdx].FindCourse(req.CourseID)
	if courseIdx == -1 {
		return status.Error(codes.NotFound, "course not found")
	}
	enrolled := &u.AcademicPath[semIdx].Courses[courseIdx]

	found := false
	for i := range enrolled.Assignments {
		if enrolled.Assignments[i].ID == req.AssignmentID {
			enrolled.Assignments[i].Grade = *req.Grade
			found = true
			break
		}
	}
	if !found {
		return status.Error(codes.NotFound, "assignment not found")
	}

	if req.IsFinalGrade != nil {
		enrolled.IsFinalGrade = *req.IsFinalGrade
	}

	_, err := s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"academicPath": u.AcademicPath}},
	)
	if err != nil {
		s.log.Errorw("persisting assignment grade failed", "user", userID, "err", err)
		return status.Error(codes.Internal, "failed to update grade")
	}

	return s.RecomputeUser(ctx, userID)
}

// RecomputeUser loads the user and every referenced shared course, runs the
// aggregation, and persists the user plus each course whose ledger changed.
func (s *Service) RecomputeUser(ctx context.Context, userID string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return status.Error(codes.NotFound, "user not found")
		}
		return status.Error(codes.Internal, "failed to retrieve user")
	}

	courses, err := s.loadReferencedCourses(queryCtx, &u)
	if err != nil {
		return err
	}

	touched := Recompute(&u, courses)
	metrics.GradeRecomputes.Inc()

	_, err = s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"academicPath":      u.AcademicPath,
			"overallFinalGrade": u.OverallFinalGrade,
		}},
	)
	if err != nil {
		s.log.Errorw("persisting recomputed grades failed", "user", userID, "err", err)
		return status.Error(codes.Internal, "failed to update user grades")
	}

	for _, courseID := range touched {
		course := courses[courseID]
		_, err := s.coursesCol.UpdateOne(queryCtx,
			bson.M{"_id": courseID},
			bson.M{"$set": bson.M{"allGrades": course.AllGrades}},
		)
		if err != nil {
			s.log.Errorw("persisting course ledger failed", "course", courseID, "err", err)
			return status.Error(codes.Internal, "failed to update course grades")
		}
	}

	return nil
}

// loadReferencedCourses fetches every shared course that appears in the
// user's academic path.
func (s *Service) loadReferencedCourses(ctx context.Context, u *shared.User) (map[string]*shared.Course, error) {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, sem := range u.AcademicPath {
		for _, enrolled := range sem.Courses {
			if !seen[enrolled.CourseID] {
				seen[enrolled.CourseID] = true
				ids = append(ids, enrolled.CourseID)
			}
		}
	}

	courses := make(map[string]*shared.Course, len(ids))
	if len(ids) == 0 {
		return courses, nil
	}

	cursor, err := s.coursesCol.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to retrieve courses")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var course shared.Course
		if err := cursor.Decode(&course); err != nil {
			s.log.Errorw("decoding course failed", "err", err)
			continue
		}
		c := course
		courses[c.ID] = &c
	}
	if err := cursor.Err(); err != nil {
		return nil, status.Error(codes.Internal, "error iterating courses")
	}

	return courses, nil
}
