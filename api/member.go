package api

import (
	"errors"
	"log"
	"strconv"

	"campadmin/config"
	"campadmin/database"
	"campadmin/models"
	"campadmin/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MemberHandler 成员名录处理器
type MemberHandler struct {
	emailService *service.EmailService
}

// NewMemberHandler 创建成员名录处理器
func NewMemberHandler(cfg *config.Config) *MemberHandler {
	return &MemberHandler{
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// resolveMemberName 按成员 ID 解析显示名
// 付款记录写入时调用，未找到返回 gorm.ErrRecordNotFound
func resolveMemberName(id uint) (string, error) {
	var member models.Member
	if err := database.DB.First(&member, id).Error; err != nil {
		return "", err
	}
	return member.DisplayName(), nil
}

// MemberRequest 创建/更新成员请求
type MemberRequest struct {
	FirstName string `json:"firstName" binding:"required,max=50" example:"小明"`
	LastName  string `json:"lastName" binding:"required,max=50" example:"陈"`
	Email     string `json:"email" binding:"omitempty,email" example:"xiaoming@example.com"`
	Phone     string `json:"phone" binding:"max=30" example:"13800000000"`
}

// List 获取成员名录
// @Summary 获取成员名录
// @Description 获取全部成员，供付款表单选择付款人
// @Tags 成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Member} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	var members []models.Member
	if err := database.DB.Order("last_name, first_name").Find(&members).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询成员失败"))
		return
	}
	Success(c, members)
}

// Get 获取单个成员
// @Summary 获取单个成员
// @Tags 成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员 ID"
// @Success 200 {object} Response{data=models.Member} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "成员不存在"
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的成员 ID")
		return
	}

	var member models.Member
	if err := database.DB.First(&member, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "成员不存在")
		} else {
			InternalError(c, SafeErrorMessage(err, "查询成员失败"))
		}
		return
	}
	Success(c, member)
}

// Create 登记成员
// @Summary 登记成员
// @Description 报名表单的落库入口；邮件服务启用且填写了邮箱时发送确认邮件（发送失败只记录日志，不影响登记）
// @Tags 成员
// @Accept json
// @Produce json
// @Param request body MemberRequest true "成员信息"
// @Success 201 {object} Response{data=models.Member} "登记成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	member := models.Member{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := database.DB.Create(&member).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "登记成员失败"))
		return
	}

	// 确认邮件尽力而为，失败不回滚登记；服务未启用时不尝试发送
	if member.Email != "" && h.emailService.Enabled() {
		if err := h.emailService.SendRegistrationConfirmation(member.Email, member.DisplayName()); err != nil {
			log.Printf("发送登记确认邮件失败 (member=%d): %v", member.ID, err)
		}
	}

	Created(c, "登记成功", member)
}

// Update 更新成员
// @Summary 更新成员
// @Description 更新成员资料。历史付款中缓存的显示名是写入时的快照，不随改名回写。
// @Tags 成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员 ID"
// @Param request body MemberRequest true "成员信息"
// @Success 200 {object} Response{data=models.Member} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "成员不存在"
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的成员 ID")
		return
	}

	var member models.Member
	if err := database.DB.First(&member, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "成员不存在")
		} else {
			InternalError(c, SafeErrorMessage(err, "查询成员失败"))
		}
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	member.FirstName = req.FirstName
	member.LastName = req.LastName
	member.Email = req.Email
	member.Phone = req.Phone

	if err := database.DB.Save(&member).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新成员失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", member)
}

// Delete 删除成员
// @Summary 删除成员
// @Description 软删除成员；历史付款中缓存的显示名不受影响
// @Tags 成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员 ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "成员不存在"
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的成员 ID")
		return
	}

	result := database.DB.Delete(&models.Member{}, uint(id))
	if result.Error != nil {
		InternalError(c, SafeErrorMessage(result.Error, "删除成员失败"))
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "成员不存在")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
