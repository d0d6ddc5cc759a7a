package api

import (
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
	"github.com/Virag-Koradiya/unlisted-stocks/httpx"
)

type stockRequest struct {
	Name  *string       `json:"stockName"`
	Price optionalFloat `json:"price"`
	Logo  *string       `json:"logo"`
}

type stockListResponse struct {
	Success bool            `json:"success"`
	Stocks  []catalog.Stock `json:"stocks"`
}

type stockResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Stock   catalog.Stock `json:"stock"`
}

func (h *Handlers) listStocks(c httpx.Context) error {
	stocks, err := h.stocks.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(httpx.StatusOK, stockListResponse{Success: true, Stocks: stocks})
}

func (h *Handlers) addStock(c httpx.Context) error {
	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	in := catalog.NewStock{Price: req.Price.Ptr()}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Logo != nil {
		in.Logo = *req.Logo
	}
	stock, err := h.stocks.Add(c.Request().Context(), in)
	if err != nil {
		return addStockErrors.translate(err)
	}
	return c.JSON(httpx.StatusCreated, stockResponse{Success: true, Message: msgStockAdded, Stock: stock})
}

func (h *Handlers) updateStock(c httpx.Context) error {
	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	stock, err := h.stocks.Update(c.Request().Context(), c.Param("id"), catalog.StockPatch{
		Name:  req.Name,
		Price: req.Price.Ptr(),
		Logo:  req.Logo,
	})
	if err != nil {
		return updateStockErrors.translate(err)
	}
	return c.JSON(httpx.StatusOK, stockResponse{Success: true, Message: msgStockUpdated, Stock: stock})
}

func (h *Handlers) deleteStock(c httpx.Context) error {
	stock, err := h.stocks.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return deleteStockErrors.translate(err)
	}
	return c.JSON(httpx.StatusOK, stockResponse{Success: true, Message: msgStockDeleted, Stock: stock})
}
