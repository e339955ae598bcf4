package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/types"
	"github.com/yeisme/iolabel/pkg/rule"
)

// ListClassifications 按标签过滤查询索引.
//
//	@Summary	查询分类结果
//	@Tags		索引
//	@Produce	json
//	@Param		compute_system	query		string	false	"计算系统"
//	@Param		file_system		query		string	false	"文件系统"
//	@Param		read_or_write	query		string	false	"read|write|unknown"
//	@Param		shared_or_fpp	query		string	false	"fpp|shared|unknown"
//	@Param		application		query		string	false	"应用名"
//	@Param		since			query		int		false	"start_time 下界（unix 秒）"
//	@Param		until			query		int		false	"start_time 上界（unix 秒）"
//	@Param		limit			query		int		false	"最大条数"
//	@Param		offset			query		int		false	"偏移"
//	@Success	200				{object}	map[string]any
//	@Failure	400				{object}	ErrorResponse
//	@Failure	503				{object}	ErrorResponse
//	@Router		/api/v1/classifications [get]
func ListClassifications(c *gin.Context) {
	var q types.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := rule.ValidateStruct(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := service.NewIndexService(c.Request.Context()).List(c.Request.Context(), q)
	if err != nil {
		respondError(c, "list classifications failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetClassification 按 md5 查询单条记录.
//
//	@Summary	查询单个日志的分类结果
//	@Tags		索引
//	@Produce	json
//	@Param		md5	path		string	true	"日志内容 md5"
//	@Success	200	{object}	map[string]any
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/classifications/{md5} [get]
func GetClassification(c *gin.Context) {
	md5 := c.Param("md5")
	if err := rule.ValidateVar(md5, "required,md5"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid md5"})
		return
	}

	row, err := service.NewIndexService(c.Request.Context()).Get(c.Request.Context(), md5)
	if err != nil {
		respondError(c, "get classification failed", err)
		return
	}

	res, err := row.ToResult()
	if err != nil {
		respondError(c, "decode classification failed", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetStats 索引统计.
//
//	@Summary	索引统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.IndexSummary
//	@Failure	503	{object}	ErrorResponse
//	@Router		/api/v1/stats [get]
func GetStats(c *gin.Context) {
	sum, err := service.NewIndexService(c.Request.Context()).Summary(c.Request.Context())
	if err != nil {
		respondError(c, "index summary failed", err)
		return
	}

	c.JSON(http.StatusOK, sum)
}
