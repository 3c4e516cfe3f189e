package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lms-backend/database"
	"lms-backend/internal/domain/centers"
	"lms-backend/internal/domain/classes"
	"lms-backend/internal/domain/students"
)

func CreateBranch(c *gin.Context) {
	var input CreateBranchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	branch := centers.Branch{Name: input.Name}
	if err := database.DB.Create(&branch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create branch"})
		return
	}

	c.JSON(http.StatusCreated, branch)
}

func ListBranches(c *gin.Context) {
	var branches []centers.Branch
	if err := database.DB.Order("name ASC").Find(&branches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branches"})
		return
	}

	c.JSON(http.StatusOK, branches)
}

func CreateClass(c *gin.Context) {
	var input CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.MonthlyFee.IsNegative() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Monthly fee must not be negative"})
		return
	}

	class := classes.Class{
		BranchID:   input.BranchID,
		Name:       input.Name,
		MonthlyFee: input.MonthlyFee,
	}
	if err := database.DB.Create(&class).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create class"})
		return
	}

	c.JSON(http.StatusCreated, class)
}

func ListClasses(c *gin.Context) {
	q := database.DB.Order("name ASC")
	if branchID := c.Query("branch_id"); branchID != "" {
		id, err := uuid.Parse(branchID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch id"})
			return
		}
		q = q.Where("branch_id = ?", id)
	}

	var list []classes.Class
	if err := q.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load classes"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func CreateSession(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid class id"})
		return
	}

	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Price.IsNegative() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Price must not be negative"})
		return
	}

	var class classes.Class
	if err := database.DB.First(&class, "id = ?", classID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	session := classes.ClassSession{
		ClassID:  class.ID,
		StartsAt: input.StartsAt,
		Price:    input.Price,
	}
	if err := database.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func ListSessions(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid class id"})
		return
	}

	var sessions []classes.ClassSession
	if err := database.DB.
		Where("class_id = ?", classID).
		Order("starts_at ASC").
		Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func CreateStudentProfile(c *gin.Context) {
	var input CreateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	student := students.StudentProfile{
		GuardianUserID: input.GuardianUserID,
		BranchID:       input.BranchID,
		Name:           input.Name,
	}
	if err := database.DB.Create(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create student profile"})
		return
	}

	c.JSON(http.StatusCreated, student)
}

// ListMyStudents returns the student profiles whose charges the caller's
// wallet funds.
func ListMyStudents(c *gin.Context) {
	userID, ok := c.MustGet("user_id").(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var list []students.StudentProfile
	if err := database.DB.
		Where("guardian_user_id = ?", userID).
		Order("name ASC").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load students"})
		return
	}

	c.JSON(http.StatusOK, list)
}
