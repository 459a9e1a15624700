package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront_v1/internal/controller"
	"storefront_v1/internal/middleware"

	_ "storefront_v1/docs"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	authCtl *controller.AuthController,
	attrCtl *controller.AttributeController,
	productCtl *controller.ProductController,
	collCtl *controller.CollectionController,
	shipCtl *controller.ShippingController) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. API 路由组
	api := r.Group("/api/v1")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/login", authCtl.Login)
		}

		// 读取侧：可选登录，登录与否决定前台可见性口径
		read := api.Group("", middleware.OptionalAuth())
		{
			read.GET("/attributes", attrCtl.ListAttributes)
			read.GET("/products", productCtl.ListProducts)
			read.GET("/products/:id", productCtl.GetProduct)
			read.GET("/products/attributes/batch", attrCtl.BatchProductAttributes)
			read.GET("/variants/attributes/batch", attrCtl.BatchVariantAttributes)
		}

		// 写入侧：要求登录且具备目录管理权限
		manage := api.Group("", middleware.JWTAuth(), middleware.RequireCatalogManager())
		{
			// attribute 属性维护
			manage.POST("/attributes", attrCtl.CreateAttribute)

			// product 商品与变体
			manage.POST("/product-types", productCtl.CreateProductType)
			manage.POST("/products", productCtl.CreateProduct)
			manage.PUT("/products/:id", productCtl.UpdateProduct)
			manage.DELETE("/products/:id", productCtl.DeleteProduct)
			manage.POST("/products/:id/variants", productCtl.AddVariant)

			// collection 集合
			manage.POST("/collections", collCtl.CreateCollection)
			manage.POST("/collections/:id/products", collCtl.AddProducts)
			manage.DELETE("/collections/:id/products", collCtl.RemoveProducts)
			manage.POST("/collections/:id/products/reorder", collCtl.ReorderProducts)

			// shipping 运费
			shipping := manage.Group("/shipping")
			{
				shipping.POST("/profiles", shipCtl.CreateProfile)
				shipping.PUT("/profiles/:id", shipCtl.UpdateProfile)
				shipping.DELETE("/profiles/:id", shipCtl.DeleteProfile)
				shipping.POST("/groups", shipCtl.CreateGroup)
				shipping.PUT("/groups/:id", shipCtl.SaveGroup)
				shipping.PUT("/zones/:id/countries", shipCtl.SaveZoneCountries)
				shipping.POST("/methods", shipCtl.CreateMethod)
				shipping.PUT("/methods/:id", shipCtl.SaveMethod)
			}
		}
	}
}
