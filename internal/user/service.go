package user

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gradetrack/internal/shared"
)

// Service implements registration, login, and profile reads.
type Service struct {
	db         *mongo.Database
	cfg        *shared.ServiceConfig
	usersCol   *mongo.Collection
	coursesCol *mongo.Collection
	log        *zap.SugaredLogger
}

// NewService creates a new user Service instance.
func NewService(db *mongo.Database, cfg *shared.ServiceConfig, log *zap.SugaredLogger) *Service {
	return &Service{
		db:         db,
		cfg:        cfg,
		usersCol:   db.Collection(shared.ColUsers),
		coursesCol: db.Collection(shared.ColCourses),
		log:        log,
	}
}

// Register creates a new account. A taken username fails with the same
// message no matter which password was supplied.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return status.Error(codes.InvalidArgument, "username and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.usersCol.CountDocuments(queryCtx, bson.M{"username": username})
	if err != nil {
		s.log.Errorw("counting users failed", "err", err)
		return status.Error(codes.Internal, "error registering user")
	}
	if count > 0 {
		return status.Error(codes.InvalidArgument, "user with this username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Security.BCryptCost)
	if err != nil {
		return status.Error(codes.Internal, "error registering user")
	}

	newUser := shared.User{
		ID:           shared.GenerateID("usr"),
		Username:     username,
		Password:     string(hash),
		Role:         shared.RoleUser,
		AcademicPath: []shared.Semester{},
		CreatedAt:    time.Now(),
	}

	if _, err := s.usersCol.InsertOne(queryCtx, newUser); err != nil {
		// Unique index on username closes the check-then-insert window.
		if mongo.IsDuplicateKeyError(err) {
			return status.Error(codes.InvalidArgument, "user with this username already exists")
		}
		s.log.Errorw("inserting user failed", "err", err)
		return status.Error(codes.Internal, "error registering user")
	}

	return nil
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", status.Error(codes.InvalidArgument, "username and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"username": username}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", status.Error(codes.InvalidArgument, "user not found")
		}
		s.log.Errorw("finding user failed", "err", err)
		return "", status.Error(codes.Internal, "error logging in user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", status.Error(codes.InvalidArgument, "invalid credentials")
	}

	token, err := GenerateToken(&s.cfg.Security, &u)
	if err != nil {
		s.log.Errorw("generating token failed", "err", err)
		return "", status.Error(codes.Internal, "failed to generate token")
	}

	return token, nil
}

// Me returns the user's own document.
func (s *Service) Me(ctx context.Context, userID string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve user")
	}

	return &u, nil
}

// ============================================================================
// Academic Path
// ============================================================================

// AcademicPathView is the user's path with shared course details resolved.
type AcademicPathView struct {
	OverallFinalGrade float64        `json:"overallFinalGrade"`
	Semesters         []SemesterView `json:"semesters"`
}

// SemesterView is one semester of the academic path view.
type SemesterView struct {
	Semester string       `json:"semester"`
	Courses  []CourseView `json:"courses"`
}

// CourseView is one enrolled course with its shared course fields inlined.
type CourseView struct {
	CourseID            string              `json:"courseId"`
	CourseCode          string              `json:"courseCode"`
	CourseName          string              `json:"courseName"`
	SchoolName          string              `json:"schoolName"`
	Weight              float64             `json:"weight"`
	MaxPoints           float64             `json:"maxPoints"`
	Assignments         []shared.Assignment `json:"assignments"`
	ProjectedFinalGrade float64             `json:"projectedFinalGrade"`
	IsFinalGrade        bool                `json:"isFinalGrade"`
}

// AcademicPath returns the user's semesters with each enrolled course
// denormalized against the shared courses collection.
func (s *Service) AcademicPath(ctx context.Context, userID string) (*AcademicPathView, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	view := &AcademicPathView{
		OverallFinalGrade: u.OverallFinalGrade,
		Semesters:         []SemesterView{},
	}

	for _, sem := range u.AcademicPath {
		semView := SemesterView{Semester: sem.Semester, Courses: []CourseView{}}
		for _, enrolled := range sem.Courses {
			cv := CourseView{
				CourseID:            enrolled.CourseID,
				Assignments:         enrolled.Assignments,
				ProjectedFinalGrade: enrolled.ProjectedFinalGrade,
				IsFinalGrade:        enrolled.IsFinalGrade,
			}

			var course shared.Course
			err := s.coursesCol.FindOne(queryCtx, bson.M{"_id": enrolled.CourseID}).Decode(&course)
			if err == nil {
				cv.CourseCode = course.CourseCode
				cv.CourseName = course.CourseName
				cv.SchoolName = course.SchoolName
				cv.Weight = course.Weight
				cv.MaxPoints = course.MaxPoints
			} else if err != mongo.ErrNoDocuments {
				return nil, status.Error(codes.Internal, "failed to retrieve course details")
			}

			semView.Courses = append(semView.Courses, cv)
		}
		view.Semesters = append(view.Semesters, semView)
	}

	return view, nil
}

// EnsureAdmin seeds the administrative account if it does not exist yet.
// Authorization checks use the role field, not the configured name.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	if s.cfg.Admin.Password == "" {
		s.log.Warnw("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.usersCol.CountDocuments(queryCtx, bson.M{"username": s.cfg.Admin.Username})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), s.cfg.Security.BCryptCost)
	if err != nil {
		return err
	}

	admin := shared.User{
		ID:           shared.GenerateID("usr"),
		Username:     s.cfg.Admin.Username,
		Password:     string(hash),
		Role:         shared.RoleAdmin,
		AcademicPath: []shared.Semester{},
		CreatedAt:    time.Now(),
	}

	if _, err := s.usersCol.InsertOne(queryCtx, admin); err != nil {
		return err
	}

	s.log.Infow("seeded admin account", "username", s.cfg.Admin.Username)
	return nil
}
